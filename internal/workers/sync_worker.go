package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/metrics"
	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/services"
	"github.com/sirdesai22/regdesk/internal/sink"
)

const (
	DefaultInterval    = 5 * time.Minute
	DefaultMaxAttempts = 3
	EnvelopeVersion    = "1.0"
)

// SyncWorker drains the sync queue into a Sink, one item at a time in
// FIFO order. At most one drain runs at any moment.
type SyncWorker struct {
	Queue       *services.SyncQueue
	Store       *services.RecordStore
	Sink        sink.Sink
	Net         *Connectivity
	Log         *zap.Logger
	Interval    time.Duration
	MaxAttempts int
	Source      string
	Now         func() time.Time

	draining atomic.Bool
	once     sync.Once
	trigger  chan struct{}
}

// DrainResult lists what one drain did, by team id.
type DrainResult struct {
	Delivered []int64 `json:"delivered"`
	Pending   []int64 `json:"pending"`
	GaveUp    []int64 `json:"gaveUp"`
	Dropped   []int64 `json:"dropped"`
	Skipped   bool    `json:"skipped"`
	Reason    string  `json:"reason,omitempty"`
}

func (w *SyncWorker) init() {
	w.once.Do(func() {
		w.trigger = make(chan struct{}, 1)
		if w.Log == nil {
			w.Log = zap.NewNop()
		}
		if w.Now == nil {
			w.Now = time.Now
		}
	})
}

// Trigger asks Run for a drain without waiting for it.
func (w *SyncWorker) Trigger() {
	w.init()
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run drains at startup when work is pending, on every offline→online
// transition, every Interval and on Trigger, until ctx is done.
func (w *SyncWorker) Run(ctx context.Context) {
	w.init()
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	online := w.Net.Watch()

	w.Log.Info("sync worker started", zap.String("sink", w.Sink.Name()), zap.Duration("interval", interval))
	if w.Queue.Len() > 0 {
		w.drain(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			w.Log.Info("sync worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx, "interval")
		case <-online:
			w.drain(ctx, "online")
		case <-w.trigger:
			w.drain(ctx, "manual")
		}
	}
}

func (w *SyncWorker) drain(ctx context.Context, reason string) {
	res, err := w.DrainOnce(ctx)
	switch {
	case errors.Is(err, errs.ErrDrainInProgress):
		return
	case err != nil:
		w.Log.Error("drain failed", zap.String("trigger", reason), zap.Error(err))
	case res.Skipped:
		w.Log.Debug("drain skipped", zap.String("trigger", reason), zap.String("reason", res.Reason))
	default:
		w.Log.Info("drain finished",
			zap.String("trigger", reason),
			zap.Int("delivered", len(res.Delivered)),
			zap.Int("pending", len(res.Pending)),
			zap.Int("gave_up", len(res.GaveUp)),
			zap.Int("dropped", len(res.Dropped)),
		)
	}
}

// DrainOnce walks the queue once. Each item's attempt is counted and
// persisted before its delivery; an in-flight delivery is not cancelled by
// ctx, but no further items are started once ctx is done.
func (w *SyncWorker) DrainOnce(ctx context.Context) (DrainResult, error) {
	w.init()
	if !w.draining.CompareAndSwap(false, true) {
		return DrainResult{Skipped: true, Reason: "drain in progress"}, errs.ErrDrainInProgress
	}
	defer w.draining.Store(false)

	if !w.Net.Online() {
		return DrainResult{Skipped: true, Reason: "offline"}, nil
	}
	if !w.Sink.Configured() {
		return DrainResult{Skipped: true, Reason: errs.ErrSinkNotConfigured.Error()}, nil
	}

	var res DrainResult
	items := w.Queue.Items()
	for i, it := range items {
		if ctx.Err() != nil || !w.Net.Online() {
			for _, rest := range items[i:] {
				res.Pending = append(res.Pending, rest.TeamID)
			}
			break
		}
		if err := w.deliver(ctx, it, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// deliver handles one item. Only storage failures are returned; delivery
// failures are recorded on the item and the team.
func (w *SyncWorker) deliver(ctx context.Context, it models.SyncQueueItem, res *DrainResult) error {
	team, err := w.Store.GetTeam(it.TeamID)
	if errors.Is(err, errs.ErrNotFound) {
		if _, err := w.Queue.Resolve(ctx, it.ID); err != nil {
			return err
		}
		res.Dropped = append(res.Dropped, it.TeamID)
		return nil
	}

	cur, ok, err := w.Queue.MarkAttempt(ctx, it.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	env := models.Envelope{
		Action:    cur.Action,
		Data:      team,
		Timestamp: w.Now(),
		Source:    w.Source,
		Version:   EnvelopeVersion,
	}
	derr := w.Sink.Deliver(context.WithoutCancel(ctx), env)
	if derr == nil {
		metrics.SyncDelivered.Inc()
		return w.settle(ctx, cur, models.SyncSynced, res)
	}

	metrics.SyncFailedAttempts.Inc()
	w.Log.Warn("sync attempt failed", zap.Error(&errs.SyncDeliveryError{TeamID: cur.TeamID, Attempt: cur.Attempts, Err: derr}))
	if cur.Attempts >= w.maxAttempts() {
		metrics.SyncGaveUp.Inc()
		return w.settle(ctx, cur, models.SyncFailed, res)
	}
	if err := w.Store.SetSyncState(ctx, cur.TeamID, models.SyncUnsynced, cur.Attempts); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	res.Pending = append(res.Pending, cur.TeamID)
	return nil
}

// settle removes a finished item and records the final state on the team.
// If the item was superseded while in flight the newer item stays queued
// and the team is left unsynced.
func (w *SyncWorker) settle(ctx context.Context, cur models.SyncQueueItem, state models.SyncState, res *DrainResult) error {
	removed, err := w.Queue.Resolve(ctx, cur.ID)
	if err != nil {
		return err
	}
	if !removed {
		res.Pending = append(res.Pending, cur.TeamID)
		return nil
	}
	if err := w.Store.SetSyncState(ctx, cur.TeamID, state, cur.Attempts); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if state == models.SyncSynced {
		res.Delivered = append(res.Delivered, cur.TeamID)
	} else {
		w.Log.Error("sync gave up", zap.Int64("team_id", cur.TeamID), zap.Int("attempts", cur.Attempts))
		res.GaveUp = append(res.GaveUp, cur.TeamID)
	}
	return nil
}

func (w *SyncWorker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return w.MaxAttempts
}
