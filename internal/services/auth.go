package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

// Argon2id parameters.
const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16

	minPasswordLen = 6
	sessionSubject = "admin"
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func VerifyPassword(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), expected) == 1
}

// NewSystemSettings builds the initial settings record for the given admin password.
func NewSystemSettings(password string) (models.SystemSettings, error) {
	if len(password) < minPasswordLen {
		return models.SystemSettings{}, fmt.Errorf("admin password must be at least %d characters", minPasswordLen)
	}
	salt, err := RandBytes(saltLen)
	if err != nil {
		return models.SystemSettings{}, err
	}
	return models.SystemSettings{
		AdminPasswordHash: HashPassword([]byte(password), salt),
		AdminPasswordSalt: salt,
	}, nil
}

// Auth guards admin operations with a single shared password and one
// persisted session. Issuing a new session invalidates the previous one.
type Auth struct {
	mu       sync.Mutex
	backend  db.Backend
	log      *zap.Logger
	signKey  []byte
	ttl      time.Duration
	now      func() time.Time
	settings models.SystemSettings
}

func NewAuth(ctx context.Context, backend db.Backend, signKey []byte, ttl time.Duration, log *zap.Logger) (*Auth, error) {
	if len(signKey) == 0 {
		return nil, errors.New("empty session signing key")
	}
	a := &Auth{backend: backend, log: log, signKey: signKey, ttl: ttl, now: time.Now}

	raw, err := backend.Load(ctx, db.KeySettings)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		log.Warn("settings record missing, admin login disabled until a password is set")
	case err != nil:
		return nil, &errs.StorageError{Op: "load", Key: db.KeySettings, Err: err}
	default:
		if err := json.Unmarshal(raw, &a.settings); err != nil {
			return nil, fmt.Errorf("decode %s: %w", db.KeySettings, err)
		}
	}
	return a, nil
}

// Login checks password and issues a signed session token.
func (a *Auth) Login(ctx context.Context, password string) (string, time.Time, error) {
	a.mu.Lock()
	st := a.settings
	a.mu.Unlock()

	if len(st.AdminPasswordHash) == 0 || !VerifyPassword([]byte(password), st.AdminPasswordSalt, st.AdminPasswordHash) {
		a.log.Warn("admin login rejected")
		return "", time.Time{}, errs.ErrUnauthorized
	}

	now := a.now()
	sess := models.Session{ID: uuid.NewString(), ExpiresAt: now.Add(a.ttl)}
	raw, err := json.Marshal(sess)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := a.backend.Save(ctx, db.KeySession, raw); err != nil {
		return "", time.Time{}, &errs.StorageError{Op: "save", Key: db.KeySession, Err: err}
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	a.log.Info("admin session started", zap.Time("expires_at", sess.ExpiresAt))
	return signed, sess.ExpiresAt, nil
}

// Authorize accepts token only if it is correctly signed, unexpired and
// names the currently persisted session.
func (a *Auth) Authorize(ctx context.Context, token string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now), jwt.WithSubject(sessionSubject))
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}

	raw, err := a.backend.Load(ctx, db.KeySession)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%w: no active session", errs.ErrUnauthorized)
	}
	if err != nil {
		return &errs.StorageError{Op: "load", Key: db.KeySession, Err: err}
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("decode %s: %w", db.KeySession, err)
	}
	if sess.ID != claims.ID || !a.now().Before(sess.ExpiresAt) {
		return fmt.Errorf("%w: session superseded or expired", errs.ErrUnauthorized)
	}
	return nil
}

func (a *Auth) Logout(ctx context.Context) error {
	if err := a.backend.Delete(ctx, db.KeySession); err != nil {
		return &errs.StorageError{Op: "delete", Key: db.KeySession, Err: err}
	}
	a.log.Info("admin session ended")
	return nil
}

// ChangePassword replaces the admin credential and ends the current session.
// A failure to end the session is logged; the password change still stands.
func (a *Auth) ChangePassword(ctx context.Context, password string) error {
	if len(password) < minPasswordLen {
		return errs.ValidationErrors{{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)}}
	}
	salt, err := RandBytes(saltLen)
	if err != nil {
		return err
	}
	err = a.update(ctx, func(st *models.SystemSettings) {
		st.AdminPasswordSalt = salt
		st.AdminPasswordHash = HashPassword([]byte(password), salt)
	})
	if err != nil {
		return err
	}
	a.log.Info("admin password changed")
	if err := a.Logout(ctx); err != nil {
		a.log.Error("end session after password change", zap.Error(err))
	}
	return nil
}

// SystemSettingsUpdate carries the operator-editable part of the settings record.
type SystemSettingsUpdate struct {
	AdminEmail          string `json:"adminEmail"`
	SyncEndpoint        string `json:"googleSheetsUrl"`
	EnableNotifications bool   `json:"enableEmailNotifications"`
	EnableAutoBackup    bool   `json:"enableAutoBackup"`
}

// SystemSettings returns the settings record without the credential.
func (a *Auth) SystemSettings() models.SystemSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.settings
	st.AdminPasswordHash = nil
	st.AdminPasswordSalt = nil
	return st
}

// SyncEndpoint is the operator-configured outbound URL, possibly empty.
func (a *Auth) SyncEndpoint() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.SyncEndpoint
}

func (a *Auth) NotificationsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.EnableNotifications
}

func (a *Auth) UpdateSystemSettings(ctx context.Context, in SystemSettingsUpdate) (models.SystemSettings, error) {
	in.AdminEmail = strings.TrimSpace(in.AdminEmail)
	in.SyncEndpoint = strings.TrimSpace(in.SyncEndpoint)

	var v errs.ValidationErrors
	if in.AdminEmail != "" && !strings.Contains(in.AdminEmail, "@") {
		v.Add("adminEmail", "must be an email address")
	}
	if in.SyncEndpoint != "" {
		u, err := url.Parse(in.SyncEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.Add("googleSheetsUrl", "must be an http(s) URL")
		}
	}
	if err := v.Err(); err != nil {
		return models.SystemSettings{}, err
	}

	err := a.update(ctx, func(st *models.SystemSettings) {
		st.AdminEmail = in.AdminEmail
		st.SyncEndpoint = in.SyncEndpoint
		st.EnableNotifications = in.EnableNotifications
		st.EnableAutoBackup = in.EnableAutoBackup
	})
	if err != nil {
		return models.SystemSettings{}, err
	}
	return a.SystemSettings(), nil
}

func (a *Auth) update(ctx context.Context, fn func(st *models.SystemSettings)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.settings
	fn(&next)
	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := a.backend.Save(ctx, db.KeySettings, raw); err != nil {
		return &errs.StorageError{Op: "save", Key: db.KeySettings, Err: err}
	}
	a.settings = next
	return nil
}
