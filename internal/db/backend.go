// Package db provides the durable key/value backends holding the named
// records of the registration desk.
package db

import "context"

// Fixed record keys.
const (
	KeyData      = "tournament_data"
	KeySettings  = "tournament_settings"
	KeyBackups   = "tournament_backups"
	KeySyncQueue = "tournament_sync_queue"
	KeySession   = "admin_session"
)

// Backend stores opaque JSON records by key.
// Load returns errs.ErrNotFound when the key has never been written.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
