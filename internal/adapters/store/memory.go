package store

import (
	"context"
	"encoding/json"
	"fmt"
	"membercard/internal/core/domain"
	"sync"
)

// Memory keeps registrations in process. Values are copied through JSON on the way in and out so callers
// never share state with the store.
type Memory struct {
	mutex *sync.Mutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{mutex: &sync.Mutex{}, items: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) (*domain.Registration, error) {
	m.mutex.Lock()
	raw, ok := m.items[key]
	m.mutex.Unlock()

	if !ok {
		return &domain.Registration{}, nil
	}

	var reg domain.Registration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("error decoding registration %s: %w", key, err)
	}

	return &reg, nil
}

func (m *Memory) Save(_ context.Context, key string, registration *domain.Registration) error {
	raw, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("error encoding registration %s: %w", key, err)
	}

	m.mutex.Lock()
	m.items[key] = raw
	m.mutex.Unlock()

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	delete(m.items, key)
	m.mutex.Unlock()

	return nil
}
