package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Load(ctx, KeyData)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, b.Save(ctx, KeyData, []byte(`{"lastId":1}`)))
	got, err := b.Load(ctx, KeyData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastId":1}`, string(got))

	require.NoError(t, b.Save(ctx, KeyData, []byte(`{"lastId":2}`)))
	got, err = b.Load(ctx, KeyData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastId":2}`, string(got))

	require.NoError(t, b.Delete(ctx, KeyData))
	_, err = b.Load(ctx, KeyData)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, b.Delete(ctx, KeySession))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemoryBackend_FailSaves(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, KeyData, []byte(`1`)))

	boom := errors.New("quota exceeded")
	m.FailSaves(boom)
	require.ErrorIs(t, m.Save(ctx, KeyData, []byte(`2`)), boom)

	got, err := m.Load(ctx, KeyData)
	require.NoError(t, err)
	assert.Equal(t, `1`, string(got))

	m.FailSaves(nil)
	require.NoError(t, m.Save(ctx, KeyData, []byte(`2`)))
}

func TestMemoryBackend_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, KeyData, []byte(`abc`)))
	got, _ := m.Load(ctx, KeyData)
	got[0] = 'x'
	again, _ := m.Load(ctx, KeyData)
	assert.Equal(t, `abc`, string(again))
}

func TestFileBackend(t *testing.T) {
	f, err := OpenFile(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	exerciseBackend(t, f)
}

func TestFileBackend_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Save(context.Background(), KeyBackups, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KeyBackups+".json", entries[0].Name())
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	m := NewMemory()

	data := models.DefaultDataset()
	require.NoError(t, Seed(ctx, m, log, data, models.SystemSettings{AdminEmail: "a@b.c"}))

	raw, err := m.Load(ctx, KeyData)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastId":0`)

	raw, err = m.Load(ctx, KeySettings)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"adminEmail":"a@b.c"`)

	// a second seed keeps existing records
	require.NoError(t, m.Save(ctx, KeyData, []byte(`{"lastId":9}`)))
	require.NoError(t, Seed(ctx, m, log, data, models.SystemSettings{}))
	raw, _ = m.Load(ctx, KeyData)
	assert.JSONEq(t, `{"lastId":9}`, string(raw))
}

func TestSeed_StorageFailure(t *testing.T) {
	m := NewMemory()
	m.FailSaves(errors.New("read-only"))
	err := Seed(context.Background(), m, zaptest.NewLogger(t), models.DefaultDataset(), models.SystemSettings{})
	require.ErrorIs(t, err, errs.ErrStorage)
}
