package workers

import (
	"context"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/services"
)

// RequeueFailed puts one team back on the queue with a fresh attempt
// budget and asks for a drain. The queue never retries failed teams on
// its own.
func (w *SyncWorker) RequeueFailed(ctx context.Context, teamID int64) error {
	w.init()
	team, err := w.Store.GetTeam(teamID)
	if err != nil {
		return err
	}
	if err := w.requeue(ctx, team); err != nil {
		return err
	}
	w.Trigger()
	return nil
}

// RequeueAllFailed requeues every team whose sync state is failed and
// returns how many were queued.
func (w *SyncWorker) RequeueAllFailed(ctx context.Context) (int, error) {
	w.init()
	n := 0
	for _, t := range w.Store.ListTeams(services.TeamFilter{}) {
		if t.SyncState != models.SyncFailed {
			continue
		}
		if err := w.requeue(ctx, t); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		w.Trigger()
	}
	return n, nil
}

func (w *SyncWorker) requeue(ctx context.Context, team models.Team) error {
	if err := w.Store.SetSyncState(ctx, team.ID, models.SyncUnsynced, 0); err != nil {
		return err
	}
	team.SyncState = models.SyncUnsynced
	team.SyncAttempts = 0
	if _, err := w.Queue.Enqueue(ctx, team, models.ActionUpdate); err != nil {
		return err
	}
	w.Log.Info("♻️ team requeued for sync", zap.Int64("team_id", team.ID))
	return nil
}
