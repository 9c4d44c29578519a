package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

const defaultTimeout = 10 * time.Second

// Webhook posts envelopes to an operator-configured URL. The endpoint's
// reply is not inspected: any completed HTTP exchange counts as delivered.
type Webhook struct {
	url     func() string
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

type Option func(*Webhook)

func WithHTTPClient(c *http.Client) Option {
	return func(w *Webhook) { w.http = c }
}

func WithTimeout(d time.Duration) Option {
	return func(w *Webhook) { w.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Webhook) { w.log = l }
}

// NewWebhook resolves the target URL on every delivery so settings
// changes apply without a restart. WithTimeout applies to a copy of the
// client, whatever the option order, and never to the caller's client.
func NewWebhook(url func() string, opts ...Option) *Webhook {
	w := &Webhook{url: url, log: zap.NewNop()}
	for _, o := range opts {
		o(w)
	}
	if w.http == nil {
		w.http = &http.Client{Timeout: defaultTimeout}
	}
	if w.timeout > 0 {
		c := *w.http
		c.Timeout = w.timeout
		w.http = &c
	}
	return w
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Configured() bool { return strings.TrimSpace(w.url()) != "" }

func (w *Webhook) Deliver(ctx context.Context, env models.Envelope) error {
	target := strings.TrimSpace(w.url())
	if target == "" {
		return errs.ErrSinkNotConfigured
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	w.log.Debug("webhook delivered", zap.Int64("team_id", env.Data.ID), zap.Int("status", res.StatusCode))
	return nil
}
