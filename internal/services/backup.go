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
	"github.com/sirdesai22/regdesk/internal/models"
)

// BackupCapacity is the number of snapshots kept; the oldest is evicted first.
const BackupCapacity = 10

// BackupManager keeps a bounded, most-recent-first list of deep copies of
// the primary record.
type BackupManager struct {
	mu      sync.Mutex
	backend db.Backend
	store   *RecordStore
	log     *zap.Logger
	now     func() time.Time
	backups []models.Backup
}

func NewBackupManager(ctx context.Context, backend db.Backend, store *RecordStore, log *zap.Logger) (*BackupManager, error) {
	m := &BackupManager{backend: backend, store: store, log: log, now: time.Now, backups: []models.Backup{}}

	raw, err := backend.Load(ctx, db.KeyBackups)
	switch {
	case errors.Is(err, errs.ErrNotFound):
	case err != nil:
		return nil, &errs.StorageError{Op: "load", Key: db.KeyBackups, Err: err}
	default:
		if err := json.Unmarshal(raw, &m.backups); err != nil {
			return nil, fmt.Errorf("decode %s: %w", db.KeyBackups, err)
		}
	}
	if len(m.backups) > BackupCapacity {
		m.backups = m.backups[:BackupCapacity]
	}
	return m, nil
}

// CreateBackup snapshots the current primary record and prepends it.
func (m *BackupManager) CreateBackup(ctx context.Context) (models.Backup, error) {
	b := models.Backup{TakenAt: m.now(), Snapshot: m.store.Snapshot()}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := make([]models.Backup, 0, BackupCapacity)
	next = append(next, b)
	next = append(next, m.backups...)
	if len(next) > BackupCapacity {
		next = next[:BackupCapacity]
	}
	if err := m.commit(ctx, next); err != nil {
		return models.Backup{}, err
	}
	m.log.Info("backup created", zap.Int("teams", len(b.Snapshot.Teams)), zap.Int("kept", len(next)))
	return cloneBackup(b), nil
}

// ListBackups returns copies, newest first.
func (m *BackupManager) ListBackups() []models.Backup {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Backup, len(m.backups))
	for i, b := range m.backups {
		out[i] = cloneBackup(b)
	}
	return out
}

// Restore overwrites the primary record with backup index. The caller confirms intent.
func (m *BackupManager) Restore(ctx context.Context, index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.backups) {
		m.mu.Unlock()
		return errs.NotFound("backup", index)
	}
	snap := m.backups[index].Snapshot.Clone()
	m.mu.Unlock()

	return m.store.Restore(ctx, snap)
}

// DeleteBackup removes backup index. The caller confirms intent.
func (m *BackupManager) DeleteBackup(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.backups) {
		return errs.NotFound("backup", index)
	}
	next := make([]models.Backup, 0, len(m.backups)-1)
	next = append(next, m.backups[:index]...)
	next = append(next, m.backups[index+1:]...)
	return m.commit(ctx, next)
}

func (m *BackupManager) commit(ctx context.Context, next []models.Backup) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", db.KeyBackups, err)
	}
	if err := m.backend.Save(ctx, db.KeyBackups, raw); err != nil {
		return &errs.StorageError{Op: "save", Key: db.KeyBackups, Err: err}
	}
	m.backups = next
	return nil
}

func cloneBackup(b models.Backup) models.Backup {
	return models.Backup{TakenAt: b.TakenAt, Snapshot: b.Snapshot.Clone()}
}
