package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/metrics"
	"github.com/sirdesai22/regdesk/internal/models"
)

// SyncQueue is the persisted outbox of teams awaiting delivery to the
// external endpoint. It holds at most one item per team.
type SyncQueue struct {
	mu      sync.Mutex
	backend db.Backend
	log     *zap.Logger
	now     func() time.Time
	items   []models.SyncQueueItem
}

func NewSyncQueue(ctx context.Context, backend db.Backend, log *zap.Logger) (*SyncQueue, error) {
	q := &SyncQueue{backend: backend, log: log, now: time.Now, items: []models.SyncQueueItem{}}

	raw, err := backend.Load(ctx, db.KeySyncQueue)
	switch {
	case errors.Is(err, errs.ErrNotFound):
	case err != nil:
		return nil, &errs.StorageError{Op: "load", Key: db.KeySyncQueue, Err: err}
	default:
		if err := json.Unmarshal(raw, &q.items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", db.KeySyncQueue, err)
		}
	}
	for i := range q.items {
		if q.items[i].ID == uuid.Nil {
			q.items[i].ID = uuid.New()
		}
	}
	metrics.SyncQueueDepth.Set(float64(len(q.items)))
	return q, nil
}

// Enqueue appends team to the tail. A pending item for the same team is
// superseded and attempts restart at zero; a superseded register keeps the
// register action since the remote has not seen the team yet.
func (q *SyncQueue) Enqueue(ctx context.Context, team models.Team, action models.SyncAction) (models.SyncQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := make([]models.SyncQueueItem, 0, len(q.items)+1)
	for _, it := range q.items {
		if it.TeamID == team.ID {
			if it.Action == models.ActionRegister {
				action = models.ActionRegister
			}
			continue
		}
		next = append(next, it)
	}
	item := models.SyncQueueItem{
		ID:         uuid.New(),
		TeamID:     team.ID,
		Action:     action,
		Payload:    team.Clone(),
		EnqueuedAt: q.now(),
	}
	next = append(next, item)

	if err := q.commit(ctx, next); err != nil {
		return models.SyncQueueItem{}, err
	}
	q.log.Debug("sync item queued", zap.Int64("team_id", team.ID), zap.String("action", string(action)))
	return item, nil
}

// Items returns a copy of the queue in delivery order.
func (q *SyncQueue) Items() []models.SyncQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.SyncQueueItem{}, q.items...)
}

func (q *SyncQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remove drops the pending item for teamID, if any.
func (q *SyncQueue) Remove(ctx context.Context, teamID int64) (bool, error) {
	return q.removeWhere(ctx, func(it models.SyncQueueItem) bool { return it.TeamID == teamID })
}

// Resolve drops the item with the given id. It reports false when the item
// was already superseded or removed.
func (q *SyncQueue) Resolve(ctx context.Context, id uuid.UUID) (bool, error) {
	return q.removeWhere(ctx, func(it models.SyncQueueItem) bool { return it.ID == id })
}

func (q *SyncQueue) removeWhere(ctx context.Context, match func(models.SyncQueueItem) bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := make([]models.SyncQueueItem, 0, len(q.items))
	for _, it := range q.items {
		if !match(it) {
			next = append(next, it)
		}
	}
	if len(next) == len(q.items) {
		return false, nil
	}
	if err := q.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// MarkAttempt increments the attempt counter of item id and stamps
// lastAttemptAt, persisting both before the caller goes to the network.
// ok is false when the item is no longer queued.
func (q *SyncQueue) MarkAttempt(ctx context.Context, id uuid.UUID) (item models.SyncQueueItem, ok bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := append([]models.SyncQueueItem{}, q.items...)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		at := q.now()
		next[i].Attempts++
		next[i].LastAttemptAt = &at
		if err := q.commit(ctx, next); err != nil {
			return models.SyncQueueItem{}, false, err
		}
		return next[i], true, nil
	}
	return models.SyncQueueItem{}, false, nil
}

// commit persists next and only then makes it the live queue. Callers hold q.mu.
func (q *SyncQueue) commit(ctx context.Context, next []models.SyncQueueItem) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", db.KeySyncQueue, err)
	}
	if err := q.backend.Save(ctx, db.KeySyncQueue, raw); err != nil {
		q.log.Error("persist failed", zap.String("key", db.KeySyncQueue), zap.Error(err))
		return &errs.StorageError{Op: "save", Key: db.KeySyncQueue, Err: err}
	}
	q.items = next
	metrics.SyncQueueDepth.Set(float64(len(next)))
	return nil
}

// Clear drops every pending item.
func (q *SyncQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.commit(ctx, []models.SyncQueueItem{})
}

// Observe links the queue to store events: created teams are queued for
// register, edits and status changes for update, and deleted teams leave
// the queue. A reset empties the queue, since team ids start over. A
// restore rebuilds it from the restored teams that are still unsynced.
// Nothing is queued while settings.enableSync is off.
func (q *SyncQueue) Observe(store *RecordStore) {
	store.Subscribe(func(ev Event) {
		ctx := context.Background()
		var err error
		switch ev.Kind {
		case EventTeamCreated:
			if store.Settings().EnableSync {
				_, err = q.Enqueue(ctx, *ev.Team, models.ActionRegister)
			}
		case EventTeamUpdated, EventTeamStatus:
			if store.Settings().EnableSync {
				_, err = q.Enqueue(ctx, *ev.Team, models.ActionUpdate)
			}
		case EventTeamDeleted:
			_, err = q.Remove(ctx, ev.Team.ID)
		case EventDataReset:
			err = q.Clear(ctx)
		case EventDataRestored:
			err = q.requeueUnsynced(ctx, store)
		}
		if err != nil {
			q.log.Error("sync queue update failed", zap.String("event", string(ev.Kind)), zap.Error(err))
		}
	})
}

func (q *SyncQueue) requeueUnsynced(ctx context.Context, store *RecordStore) error {
	if err := q.Clear(ctx); err != nil {
		return err
	}
	if !store.Settings().EnableSync {
		return nil
	}
	for _, t := range store.ListTeams(TeamFilter{}) {
		if t.SyncState != models.SyncUnsynced {
			continue
		}
		if _, err := q.Enqueue(ctx, t, models.ActionUpdate); err != nil {
			return err
		}
	}
	return nil
}
