package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/errs"
)

func newTestBackups(t *testing.T, mem *db.Memory) (*RecordStore, *BackupManager) {
	t.Helper()
	s := newTestStore(t, mem)
	m, err := NewBackupManager(context.Background(), mem, s, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, m
}

func TestBackup_RingKeepsNewestTen(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBackups(t, db.NewMemory())

	for i := 0; i < BackupCapacity+2; i++ {
		_, err := s.CreateTeam(ctx, teamInput(fmt.Sprintf("Team %02d", i), fmt.Sprintf("T%02d", i)))
		require.NoError(t, err)
		_, err = m.CreateBackup(ctx)
		require.NoError(t, err)
	}

	list := m.ListBackups()
	require.Len(t, list, BackupCapacity)
	assert.Len(t, list[0].Snapshot.Teams, BackupCapacity+2)
	assert.Len(t, list[BackupCapacity-1].Snapshot.Teams, 3)
}

func TestBackup_RestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBackups(t, db.NewMemory())

	_, err := s.CreateTeam(ctx, teamInput("Alpha Squad", "ALP"))
	require.NoError(t, err)
	want := s.Snapshot()
	_, err = m.CreateBackup(ctx)
	require.NoError(t, err)

	_, err = s.CreateTeam(ctx, teamInput("Bravo Team", "BRV"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteTeam(ctx, 1))

	require.NoError(t, m.Restore(ctx, 0))
	assert.Equal(t, want, s.Snapshot())

	// the counter is restored too
	c, err := s.CreateTeam(ctx, teamInput("Charlie", "CHR"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ID)
}

func TestBackup_IsDeepCopy(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBackups(t, db.NewMemory())
	_, err := s.CreateTeam(ctx, teamInput("Alpha Squad", "ALP"))
	require.NoError(t, err)
	_, err = m.CreateBackup(ctx)
	require.NoError(t, err)

	_, err = s.UpdateTeam(ctx, 1, teamInput("Renamed", "ALP"))
	require.NoError(t, err)
	list := m.ListBackups()
	list[0].Snapshot.Teams[0].Players[0].Nickname = "mutated"

	again := m.ListBackups()
	assert.Equal(t, "Alpha Squad", again[0].Snapshot.Teams[0].Name)
	assert.Equal(t, "p1", again[0].Snapshot.Teams[0].Players[0].Nickname)
}

func TestBackup_OutOfRangeIndex(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBackups(t, db.NewMemory())
	_, err := s.CreateTeam(ctx, teamInput("Alpha Squad", "ALP"))
	require.NoError(t, err)
	_, err = m.CreateBackup(ctx)
	require.NoError(t, err)
	before := s.Snapshot()

	require.ErrorIs(t, m.Restore(ctx, 1), errs.ErrNotFound)
	require.ErrorIs(t, m.Restore(ctx, -1), errs.ErrNotFound)
	require.ErrorIs(t, m.DeleteBackup(ctx, 3), errs.ErrNotFound)

	assert.Equal(t, before, s.Snapshot())
	assert.Len(t, m.ListBackups(), 1)
}

func TestBackup_DeleteAndPersist(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemory()
	s, m := newTestBackups(t, mem)
	_, err := m.CreateBackup(ctx)
	require.NoError(t, err)
	_, err = s.CreateTeam(ctx, teamInput("Alpha Squad", "ALP"))
	require.NoError(t, err)
	_, err = m.CreateBackup(ctx)
	require.NoError(t, err)

	require.NoError(t, m.DeleteBackup(ctx, 0))

	_, reopened := newTestBackups(t, mem)
	list := reopened.ListBackups()
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Snapshot.Teams)
}

func TestBackup_StorageFailure(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemory()
	_, m := newTestBackups(t, mem)

	mem.FailSaves(errors.New("quota exceeded"))
	_, err := m.CreateBackup(ctx)
	require.ErrorIs(t, err, errs.ErrStorage)
	assert.Empty(t, m.ListBackups())
}
