package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

const registrationDateLayout = "02.01.2006"

// TeamFilter narrows ListTeams. Zero values match everything.
type TeamFilter struct {
	Status models.TeamStatus
	Search string // case-insensitive substring of name or tag
}

func (f TeamFilter) match(t models.Team) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Tag), q)
}

func (s *RecordStore) ListTeams(f TeamFilter) []models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Team{}
	for _, t := range s.data.Teams {
		if f.match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *RecordStore) GetTeam(id int64) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.data.Teams, id); i >= 0 {
		return s.data.Teams[i].Clone(), nil
	}
	return models.Team{}, errs.NotFound("team", id)
}

// CreateTeam validates and stores a new team with the next id and sync
// state unsynced. The team starts pending when settings.requireApproval is
// on and confirmed otherwise. Used by admins; the public path is Register.
func (s *RecordStore) CreateTeam(ctx context.Context, in TeamInput) (models.Team, error) {
	return s.create(ctx, in, nil)
}

// Register is the public registration entry point. It refuses while the
// registration window is closed or when the team limit is reached.
func (s *RecordStore) Register(ctx context.Context, in TeamInput) (models.Team, error) {
	return s.create(ctx, in, func(d *models.Dataset) error {
		if !d.Settings.RegistrationOpen || d.Tournament.Status == models.TournamentClosed {
			return errs.ErrRegistrationClosed
		}
		if d.Settings.MaxTeams > 0 && len(d.Teams) >= d.Settings.MaxTeams {
			return fmt.Errorf("%d of %d teams: %w", len(d.Teams), d.Settings.MaxTeams, errs.ErrTeamLimitReached)
		}
		return nil
	})
}

func (s *RecordStore) create(ctx context.Context, in TeamInput, guard func(d *models.Dataset) error) (models.Team, error) {
	in = in.normalize()
	ev, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		if guard != nil {
			if err := guard(d); err != nil {
				return Event{}, err
			}
		}
		if err := validateTeam(in, d.Teams, 0); err != nil {
			return Event{}, err
		}
		status := models.StatusConfirmed
		if d.Settings.RequireApproval {
			status = models.StatusPending
		}
		now := s.now()
		d.LastID++
		t := models.Team{
			ID:               d.LastID,
			Name:             in.Name,
			Tag:              in.Tag,
			Status:           status,
			Players:          in.Players,
			ReservePlayer:    in.ReservePlayer,
			Contacts:         in.Contacts,
			RegistrationDate: now.Format(registrationDateLayout),
			RegistrationTime: now,
			SyncState:        models.SyncUnsynced,
		}
		d.Teams = append(d.Teams, t)
		return Event{Kind: EventTeamCreated, Team: cloneRef(t)}, nil
	})
	if err != nil {
		return models.Team{}, err
	}
	s.log.Info("team created", zap.Int64("team_id", ev.Team.ID), zap.String("tag", ev.Team.Tag))
	return ev.Team.Clone(), nil
}

// UpdateTeam replaces the editable fields. Any edit sends the team back to
// pending and unsynced.
func (s *RecordStore) UpdateTeam(ctx context.Context, id int64, in TeamInput) (models.Team, error) {
	in = in.normalize()
	ev, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		i := indexOf(d.Teams, id)
		if i < 0 {
			return Event{}, errs.NotFound("team", id)
		}
		if err := validateTeam(in, d.Teams, id); err != nil {
			return Event{}, err
		}
		t := &d.Teams[i]
		t.Name = in.Name
		t.Tag = in.Tag
		t.Players = in.Players
		t.ReservePlayer = in.ReservePlayer
		t.Contacts = in.Contacts
		t.Status = models.StatusPending
		t.SyncState = models.SyncUnsynced
		t.SyncAttempts = 0
		return Event{Kind: EventTeamUpdated, Team: cloneRef(*t)}, nil
	})
	if err != nil {
		return models.Team{}, err
	}
	return ev.Team.Clone(), nil
}

func (s *RecordStore) SetStatus(ctx context.Context, id int64, status models.TeamStatus) (models.Team, error) {
	if !status.Valid() {
		return models.Team{}, errs.ValidationErrors{{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}}
	}
	ev, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		i := indexOf(d.Teams, id)
		if i < 0 {
			return Event{}, errs.NotFound("team", id)
		}
		t := &d.Teams[i]
		t.Status = status
		t.SyncState = models.SyncUnsynced
		t.SyncAttempts = 0
		return Event{Kind: EventTeamStatus, Team: cloneRef(*t)}, nil
	})
	if err != nil {
		return models.Team{}, err
	}
	s.log.Info("team status changed", zap.Int64("team_id", id), zap.String("status", string(status)))
	return ev.Team.Clone(), nil
}

// DeleteTeam removes a team. The caller confirms intent.
func (s *RecordStore) DeleteTeam(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		i := indexOf(d.Teams, id)
		if i < 0 {
			return Event{}, errs.NotFound("team", id)
		}
		t := d.Teams[i]
		d.Teams = append(d.Teams[:i], d.Teams[i+1:]...)
		return Event{Kind: EventTeamDeleted, Team: cloneRef(t)}, nil
	})
	if err == nil {
		s.log.Info("team deleted", zap.Int64("team_id", id))
	}
	return err
}

// SetSyncState records the outcome of a delivery attempt.
func (s *RecordStore) SetSyncState(ctx context.Context, id int64, state models.SyncState, attempts int) error {
	_, err := s.mutate(ctx, func(d *models.Dataset) (Event, error) {
		i := indexOf(d.Teams, id)
		if i < 0 {
			return Event{}, errs.NotFound("team", id)
		}
		t := &d.Teams[i]
		t.SyncState = state
		t.SyncAttempts = attempts
		return Event{Kind: EventTeamSync, Team: cloneRef(*t)}, nil
	})
	return err
}

func indexOf(teams []models.Team, id int64) int {
	for i := range teams {
		if teams[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRef(t models.Team) *models.Team {
	c := t.Clone()
	return &c
}
