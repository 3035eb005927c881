package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/aretw0/passage/pkg/ports/tests"
)

// MockStore is an in-memory implementation of OutcomeStore for testing purposes.
// Outcomes go through JSON to simulate serialization.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ ports.OutcomeStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, outcome *domain.Outcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[outcome.ID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*domain.Outcome, error) {
	m.mu.Lock()
	raw, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrOutcomeNotFound
	}
	var o domain.Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestOutcomeStore_Contract(t *testing.T) {
	tests.OutcomeStoreContractTest(t, NewMockStore())
}
