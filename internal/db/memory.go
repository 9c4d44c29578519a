package db

import (
	"context"
	"sync"

	"github.com/sirdesai22/regdesk/internal/errs"
)

// Memory is an in-process Backend. Saves can be made to fail to exercise
// storage-error paths.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	saveErr error
}

func NewMemory() *Memory {
	return &Memory{records: map[string][]byte{}}
}

// FailSaves makes every following Save return err; nil restores normal behaviour.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	delete(m.records, key)
	return nil
}
