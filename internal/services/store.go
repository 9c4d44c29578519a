// Package services holds the record store, the outbound sync queue, the
// backup manager and admin authentication.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/metrics"
	"github.com/sirdesai22/regdesk/internal/models"
)

type EventKind string

const (
	EventTeamCreated       EventKind = "team.created"
	EventTeamUpdated       EventKind = "team.updated"
	EventTeamStatus        EventKind = "team.status"
	EventTeamDeleted       EventKind = "team.deleted"
	EventTeamSync          EventKind = "team.sync"
	EventTournamentUpdated EventKind = "tournament.updated"
	EventSettingsUpdated   EventKind = "settings.updated"
	EventDataRestored      EventKind = "data.restored"
	EventDataReset         EventKind = "data.reset"
)

// Event is published after every successful mutation. Team is a private
// copy and is nil for events that are not about a single team.
type Event struct {
	Kind EventKind
	Team *models.Team
	At   time.Time
}

// RecordStore is the authoritative owner of teams, the id counter and the
// tournament configuration. Every mutation follows clone → mutate →
// persist → swap under one mutex, so a failed write leaves memory untouched.
type RecordStore struct {
	mu      sync.Mutex
	backend db.Backend
	log     *zap.Logger
	now     func() time.Time
	data    models.Dataset

	subMu sync.RWMutex
	subs  []func(Event)
}

type StoreOption func(*RecordStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *RecordStore) { s.now = now }
}

// NewRecordStore loads the primary record from backend. A missing record
// starts from models.DefaultDataset.
func NewRecordStore(ctx context.Context, backend db.Backend, log *zap.Logger, opts ...StoreOption) (*RecordStore, error) {
	s := &RecordStore{backend: backend, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	raw, err := backend.Load(ctx, db.KeyData)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.data = models.DefaultDataset()
	case err != nil:
		return nil, &errs.StorageError{Op: "load", Key: db.KeyData, Err: err}
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", db.KeyData, err)
		}
	}
	if s.data.Teams == nil {
		s.data.Teams = []models.Team{}
	}
	mirrorSettings(&s.data)
	return s, nil
}

// Subscribe registers fn for every future Event. Handlers run synchronously
// on the mutating goroutine after the store lock is released.
func (s *RecordStore) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *RecordStore) publish(ev Event) {
	s.subMu.RLock()
	subs := append([]func(Event){}, s.subs...)
	s.subMu.RUnlock()
	for _, fn := range subs {
		e := ev
		if ev.Team != nil {
			e.Team = cloneRef(*ev.Team)
		}
		fn(e)
	}
}

// mutate runs fn against a private copy of the dataset and swaps it in only
// after the copy has been persisted.
func (s *RecordStore) mutate(ctx context.Context, fn func(d *models.Dataset) (Event, error)) (Event, error) {
	s.mu.Lock()
	next := s.data.Clone()
	ev, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return Event{}, err
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return Event{}, err
	}
	s.data = next
	s.mu.Unlock()

	ev.At = s.now()
	metrics.StoreMutations.WithLabelValues(string(ev.Kind)).Inc()
	s.publish(ev)
	return ev, nil
}

func (s *RecordStore) persist(ctx context.Context, d models.Dataset) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", db.KeyData, err)
	}
	if err := s.backend.Save(ctx, db.KeyData, raw); err != nil {
		s.log.Error("persist failed", zap.String("key", db.KeyData), zap.Error(err))
		return &errs.StorageError{Op: "save", Key: db.KeyData, Err: err}
	}
	return nil
}

// ---------- Tournament & settings ----------

func (s *RecordStore) Tournament() models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Tournament
}

// SetTournament replaces the tournament configuration. MaxTeams and
// RegistrationOpen are mirrored into the settings block.
func (s *RecordStore) SetTournament(ctx context.Context, t models.Tournament) (models.Tournament, error) {
	var v errs.ValidationErrors
	if !t.Status.Valid() {
		v.Add("status", fmt.Sprintf("unknown tournament status %q", t.Status))
	}
	if t.MaxTeams < 0 {
		v.Add("maxTeams", "must be zero or a positive integer")
	}
	if err := v.Err(); err != nil {
		return models.Tournament{}, err
	}
	_, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		d.Tournament = t
		d.Settings.MaxTeams = t.MaxTeams
		d.Settings.RegistrationOpen = t.RegistrationOpen
		return Event{Kind: EventTournamentUpdated}, nil
	})
	if err != nil {
		return models.Tournament{}, err
	}
	return t, nil
}

func (s *RecordStore) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Settings
}

func (s *RecordStore) UpdateSettings(ctx context.Context, st models.Settings) (models.Settings, error) {
	if st.MaxTeams < 0 {
		return models.Settings{}, errs.ValidationErrors{{Field: "maxTeams", Message: "must be zero or a positive integer"}}
	}
	_, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		d.Settings = st
		mirrorSettings(d)
		return Event{Kind: EventSettingsUpdated}, nil
	})
	if err != nil {
		return models.Settings{}, err
	}
	return st, nil
}

func (s *RecordStore) OpenRegistration(ctx context.Context) error {
	return s.setRegistration(ctx, models.TournamentRegistration, true)
}

func (s *RecordStore) CloseRegistration(ctx context.Context) error {
	return s.setRegistration(ctx, models.TournamentClosed, false)
}

func (s *RecordStore) setRegistration(ctx context.Context, status models.TournamentStatus, open bool) error {
	_, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		d.Tournament.Status = status
		d.Settings.RegistrationOpen = open
		mirrorSettings(d)
		return Event{Kind: EventTournamentUpdated}, nil
	})
	if err == nil {
		s.log.Info("registration toggled", zap.Bool("open", open))
	}
	return err
}

// mirrorSettings copies the settings block into the tournament view.
func mirrorSettings(d *models.Dataset) {
	d.Tournament.MaxTeams = d.Settings.MaxTeams
	d.Tournament.RegistrationOpen = d.Settings.RegistrationOpen
}

// ---------- Whole-dataset operations ----------

// Snapshot returns a deep copy of the primary record.
func (s *RecordStore) Snapshot() models.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Restore overwrites the whole primary record. The caller confirms intent.
func (s *RecordStore) Restore(ctx context.Context, d models.Dataset) error {
	restored := d.Clone()
	if restored.Teams == nil {
		restored.Teams = []models.Team{}
	}
	mirrorSettings(&restored)
	_, err := s.mutate(ctx, func(cur *models.Dataset) (Event, error) {
		*cur = restored
		return Event{Kind: EventDataRestored}, nil
	})
	if err == nil {
		s.log.Warn("dataset restored", zap.Int("teams", len(restored.Teams)), zap.Int64("last_id", restored.LastID))
	}
	return err
}

// Reset puts the primary record back to its defaults. The caller confirms intent.
func (s *RecordStore) Reset(ctx context.Context) error {
	_, err := s.mutate(ctx, func(cur *models.Dataset) (Event, error) {
		*cur = models.DefaultDataset()
		return Event{Kind: EventDataReset}, nil
	})
	if err == nil {
		s.log.Warn("dataset reset to defaults")
	}
	return err
}

// Stats counts teams per moderation and sync state.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Rejected  int `json:"rejected"`
	Synced    int `json:"synced"`
	Unsynced  int `json:"unsynced"`
	Failed    int `json:"syncFailed"`
}

func (s *RecordStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.data.Teams)}
	for _, t := range s.data.Teams {
		switch t.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusConfirmed:
			st.Confirmed++
		case models.StatusRejected:
			st.Rejected++
		}
		switch t.SyncState {
		case models.SyncSynced:
			st.Synced++
		case models.SyncFailed:
			st.Failed++
		default:
			st.Unsynced++
		}
	}
	return st
}
