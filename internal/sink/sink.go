// Package sink delivers sync envelopes to the configured external system.
package sink

import (
	"context"

	"github.com/sirdesai22/regdesk/internal/models"
)

// Sink is one outbound destination. Deliver returning nil means delivered.
type Sink interface {
	Name() string
	Configured() bool
	Deliver(ctx context.Context, env models.Envelope) error
}
