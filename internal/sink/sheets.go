package sink

import (
	"context"

	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/sheets"
)

// Sheets upserts one row per team into a spreadsheet tab.
type Sheets struct {
	client *sheets.Client
}

func NewSheets(c *sheets.Client) *Sheets { return &Sheets{client: c} }

func (s *Sheets) Name() string { return "sheets" }

func (s *Sheets) Configured() bool { return s.client != nil }

func (s *Sheets) Deliver(ctx context.Context, env models.Envelope) error {
	return s.client.UpsertTeam(ctx, env)
}
