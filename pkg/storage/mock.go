package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MockSaveStore is an in-memory SaveStore for testing.
type MockSaveStore struct {
	mu        sync.RWMutex
	saves     map[string][]byte
	infos     map[string]SaveInfo
	pingError error
	saveError error
	loadError error
	now       func() time.Time

	// Track calls for testing
	SaveCalls []string
	LoadCalls []string
}

// Ensure MockSaveStore implements SaveStore interface
var _ SaveStore = (*MockSaveStore)(nil)

// NewMockSaveStore creates a new mock save store
func NewMockSaveStore() *MockSaveStore {
	return &MockSaveStore{
		saves: make(map[string][]byte),
		infos: make(map[string]SaveInfo),
		now:   time.Now,
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockSaveStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every Save fail with err until cleared with nil.
func (m *MockSaveStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes every Load fail with err until cleared with nil.
func (m *MockSaveStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SetClock fixes the time used for automatic names.
func (m *MockSaveStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Put stores raw data under an exact name, bypassing collision handling.
func (m *MockSaveStore) Put(name string, data []byte, info SaveInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info.Name = name
	m.saves[name] = slices.Clone(data)
	m.infos[name] = info
}

func (m *MockSaveStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockSaveStore) Close() error {
	return nil
}

func (m *MockSaveStore) Save(ctx context.Context, name string, doc Document, info SaveInfo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, name)
	if m.saveError != nil {
		return "", m.saveError
	}

	base, err := BaseName(name, m.now())
	if err != nil {
		return "", err
	}
	for n := range MaxNameAttempts {
		candidate := Candidate(base, n)
		if _, taken := m.saves[candidate]; taken {
			continue
		}
		data, err := doc(candidate)
		if err != nil {
			return "", err
		}
		info.Name = candidate
		m.saves[candidate] = slices.Clone(data)
		m.infos[candidate] = info
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoFreeName, base)
}

func (m *MockSaveStore) Load(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = append(m.LoadCalls, name)
	if m.loadError != nil {
		return nil, m.loadError
	}
	key, err := LookupName(name)
	if err != nil {
		return nil, err
	}
	data, ok := m.saves[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, name)
	}
	return slices.Clone(data), nil
}

func (m *MockSaveStore) List(ctx context.Context) ([]SaveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SaveInfo, 0, len(m.infos))
	for _, info := range m.infos {
		out = append(out, info)
	}
	SortNewestFirst(out)
	return out, nil
}

func (m *MockSaveStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, err := LookupName(name)
	if err != nil {
		return err
	}
	if _, ok := m.saves[key]; !ok {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, name)
	}
	delete(m.saves, key)
	delete(m.infos, key)
	return nil
}

// Reset clears all saves and recorded calls.
func (m *MockSaveStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = make(map[string][]byte)
	m.infos = make(map[string]SaveInfo)
	m.SaveCalls = nil
	m.LoadCalls = nil
}
