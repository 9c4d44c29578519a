package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/errs"
)

func newTestAuth(t *testing.T, mem *db.Memory, password string) *Auth {
	t.Helper()
	ctx := context.Background()
	st, err := NewSystemSettings(password)
	require.NoError(t, err)
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, mem.Save(ctx, db.KeySettings, raw))

	a, err := NewAuth(ctx, mem, []byte("test-secret"), 24*time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func TestVerifyPassword(t *testing.T) {
	salt, err := RandBytes(saltLen)
	require.NoError(t, err)
	h := HashPassword([]byte("astra2023"), salt)
	assert.True(t, VerifyPassword([]byte("astra2023"), salt, h))
	assert.False(t, VerifyPassword([]byte("astra2024"), salt, h))
}

func TestAuth_LoginAuthorizeLogout(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, db.NewMemory(), "astra2023")

	_, _, err := a.Login(ctx, "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	tok, exp, err := a.Login(ctx, "astra2023")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)
	require.NoError(t, a.Authorize(ctx, tok))

	require.ErrorIs(t, a.Authorize(ctx, tok+"x"), errs.ErrUnauthorized)
	require.ErrorIs(t, a.Authorize(ctx, "garbage"), errs.ErrUnauthorized)

	require.NoError(t, a.Logout(ctx))
	require.ErrorIs(t, a.Authorize(ctx, tok), errs.ErrUnauthorized)
}

func TestAuth_NewLoginSupersedesSession(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, db.NewMemory(), "astra2023")

	first, _, err := a.Login(ctx, "astra2023")
	require.NoError(t, err)
	second, _, err := a.Login(ctx, "astra2023")
	require.NoError(t, err)

	require.ErrorIs(t, a.Authorize(ctx, first), errs.ErrUnauthorized)
	require.NoError(t, a.Authorize(ctx, second))
}

func TestAuth_SessionExpires(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, db.NewMemory(), "astra2023")
	now := time.Now()
	a.now = func() time.Time { return now }

	tok, _, err := a.Login(ctx, "astra2023")
	require.NoError(t, err)

	now = now.Add(24*time.Hour + time.Second)
	require.ErrorIs(t, a.Authorize(ctx, tok), errs.ErrUnauthorized)
}

func TestAuth_ChangePassword(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemory()
	a := newTestAuth(t, mem, "astra2023")
	tok, _, err := a.Login(ctx, "astra2023")
	require.NoError(t, err)

	require.ErrorIs(t, a.ChangePassword(ctx, "short"), errs.ErrValidation)
	require.NoError(t, a.ChangePassword(ctx, "new-secret"))
	require.ErrorIs(t, a.Authorize(ctx, tok), errs.ErrUnauthorized)

	reopened, err := NewAuth(ctx, mem, []byte("test-secret"), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, _, err = reopened.Login(ctx, "astra2023")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, _, err = reopened.Login(ctx, "new-secret")
	require.NoError(t, err)
}

func TestAuth_UpdateSystemSettings(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, db.NewMemory(), "astra2023")

	_, err := a.UpdateSystemSettings(ctx, SystemSettingsUpdate{AdminEmail: "nope", SyncEndpoint: "ftp://x"})
	require.ErrorIs(t, err, errs.ErrValidation)

	st, err := a.UpdateSystemSettings(ctx, SystemSettingsUpdate{
		AdminEmail:          "admin@astra.gg",
		SyncEndpoint:        " https://script.google.com/macros/s/abc/exec ",
		EnableNotifications: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", st.SyncEndpoint)
	assert.Nil(t, st.AdminPasswordHash)
	assert.Equal(t, st.SyncEndpoint, a.SyncEndpoint())
	assert.True(t, a.NotificationsEnabled())

	// the credential survives a settings update
	_, _, err = a.Login(ctx, "astra2023")
	require.NoError(t, err)
}

func TestAuth_NoCredential(t *testing.T) {
	a, err := NewAuth(context.Background(), db.NewMemory(), []byte("k"), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, _, err = a.Login(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

// deleteFailing saves normally but cannot delete records.
type deleteFailing struct {
	*db.Memory
	err error
}

func (d deleteFailing) Delete(context.Context, string) error { return d.err }

func TestAuth_ChangePasswordStandsWhenLogoutFails(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemory()
	newTestAuth(t, mem, "astra2023")

	a, err := NewAuth(ctx, deleteFailing{Memory: mem, err: errors.New("disk gone")}, []byte("test-secret"), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, a.ChangePassword(ctx, "new-secret"))
	_, _, err = a.Login(ctx, "new-secret")
	require.NoError(t, err)
	_, _, err = a.Login(ctx, "astra2023")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}
