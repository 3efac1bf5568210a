package progress

import "sync"

// Storage is a durable key-value slot. Get reports ok=false for absent keys.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage is an in-process Storage. See SetErr for failure injection.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

// SetErr makes subsequent calls fail with err, or succeed again when err is nil.
func (m *MemoryStorage) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
