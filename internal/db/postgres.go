package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sirdesai22/regdesk/internal/errs"
)

// record is one named JSON document.
type record struct {
	Key       string `gorm:"primaryKey"`
	Value     datatypes.JSON
	UpdatedAt time.Time
}

func (record) TableName() string { return "records" }

func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Postgres stores records in a single table through gorm.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var r record
	err := p.db.WithContext(ctx).First(&r, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(r.Value), nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	r := record{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&r).Error
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	return p.db.WithContext(ctx).Delete(&record{}, "key = ?", key).Error
}
