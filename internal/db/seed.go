package db

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

// Seed writes the default primary and settings records when they are absent.
// Existing records are never touched.
func Seed(ctx context.Context, b Backend, log *zap.Logger, data models.Dataset, settings models.SystemSettings) error {
	seeded := 0
	for _, r := range []struct {
		key string
		val any
	}{
		{KeyData, data},
		{KeySettings, settings},
	} {
		_, err := b.Load(ctx, r.key)
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return &errs.StorageError{Op: "load", Key: r.key, Err: err}
		}
		raw, err := json.Marshal(r.val)
		if err != nil {
			return err
		}
		if err := b.Save(ctx, r.key, raw); err != nil {
			return &errs.StorageError{Op: "save", Key: r.key, Err: err}
		}
		seeded++
	}
	if seeded == 0 {
		log.Info("data already exists, skipping seed")
		return nil
	}
	log.Info("default records written", zap.Int("records", seeded))
	return nil
}
