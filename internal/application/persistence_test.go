package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguide/careguide-cli/internal/domain"
)

func TestPersistenceMessageRoundTrip(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore()
	p := NewPersistence(store, nil)

	sent := time.Date(2026, 8, 14, 9, 30, 15, 123_000_000, time.UTC)
	messages := []domain.Message{
		{ID: "m-1", Role: domain.RoleUser, Content: "hello", Timestamp: sent},
		{
			ID:          "m-2",
			Role:        domain.RoleAssistant,
			Content:     "hi there",
			Timestamp:   sent.Add(900 * time.Millisecond),
			Intents:     []string{"greeting"},
			Agents:      []string{"general"},
			Confidence:  0.92,
			IsEmergency: false,
		},
	}

	p.SaveMessages(context.Background(), "room-1", messages)
	got := p.LoadMessages(context.Background(), "room-1")

	require.Len(t, got, 2)
	assert.Equal(t, messages, got)
}

func TestPersistenceLoadMissingOrMalformedIsNil(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore()
	p := NewPersistence(store, nil)

	assert.Nil(t, p.LoadMessages(context.Background(), "room-1"))

	require.NoError(t, store.Set(context.Background(), historyKey("room-1"), "{not json"))
	assert.Nil(t, p.LoadMessages(context.Background(), "room-1"))
}

func TestPersistenceWriteFailureKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore()
	p := NewPersistence(store, nil)

	first := []domain.Message{{ID: "m-1", Role: domain.RoleUser, Content: "kept", Timestamp: time.UnixMilli(1000).UTC()}}
	p.SaveMessages(context.Background(), "room-1", first)

	store.failSet = errors.New("quota exceeded")
	p.SaveMessages(context.Background(), "room-1", []domain.Message{{ID: "m-2", Role: domain.RoleUser, Content: "lost"}})

	store.failSet = nil
	assert.Equal(t, first, p.LoadMessages(context.Background(), "room-1"))
}

func TestPersistenceSessionRoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPersistence(newInMemoryStore(), nil)

	session := domain.Session{
		ID:           "sess-1",
		OwnerID:      "owner-1",
		CreatedAt:    time.UnixMilli(1_700_000_000_000).UTC(),
		LastActiveAt: time.UnixMilli(1_700_000_123_456).UTC(),
	}
	p.SaveSession(context.Background(), session)

	got, ok := p.LoadSession(context.Background())
	require.True(t, ok)
	assert.Equal(t, session, got)

	p.ClearSession(context.Background())
	_, ok = p.LoadSession(context.Background())
	assert.False(t, ok)
}

type inMemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	failSet error
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{values: map[string]string{}}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

func (s *inMemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	return nil
}

func (s *inMemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
