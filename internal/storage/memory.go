package storage

// Memory is a map-backed Store for tests and throwaway sessions.
type Memory struct {
	values map[string][]byte

	// FailSet, when set, is returned from Set to simulate a persistence
	// failure.
	FailSet error
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	m.values[key] = copied
	return nil
}

func (m *Memory) Delete(key string) error {
	delete(m.values, key)
	return nil
}
