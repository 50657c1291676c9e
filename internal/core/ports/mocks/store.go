package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
)

// Store is a thread-safe in-memory implementation of ports.Store.
type Store struct {
	mu       sync.RWMutex
	criteria []ports.CriterionRecord
	chats    []ports.ListEntry
	queries  []ports.ListEntry

	// AppendCriterionFn allows overriding AppendCriterion behavior.
	AppendCriterionFn func(ctx context.Context, userID int64, criterion string) error

	// PingFn allows overriding Ping behavior.
	PingFn func(ctx context.Context) error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) AppendCriterion(ctx context.Context, userID int64, criterion string) error {
	if s.AppendCriterionFn != nil {
		return s.AppendCriterionFn(ctx, userID, criterion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.criteria = append(s.criteria, ports.CriterionRecord{Criterion: criterion, UserID: userID, CreatedAt: time.Now()})

	return nil
}

func (s *Store) LatestCriterion(_ context.Context, userID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.criteria) - 1; i >= 0; i-- {
		if s.criteria[i].UserID == userID {
			return s.criteria[i].Criterion, true, nil
		}
	}

	return "", false, nil
}

func (s *Store) AddChat(_ context.Context, userID int64, chat string) (bool, error) {
	return s.add(&s.chats, userID, chat), nil
}

func (s *Store) ListChats(_ context.Context, userID int64) ([]ports.ListEntry, error) {
	return s.list(&s.chats, userID), nil
}

func (s *Store) AddQuery(_ context.Context, userID int64, criterion string) (bool, error) {
	return s.add(&s.queries, userID, criterion), nil
}

func (s *Store) ListQueries(_ context.Context, userID int64) ([]ports.ListEntry, error) {
	return s.list(&s.queries, userID), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}

	return nil
}

func (s *Store) Close() {}

// Criteria returns a copy of every saved criterion.
func (s *Store) Criteria() []ports.CriterionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ports.CriterionRecord(nil), s.criteria...)
}

// Clear removes all stored data.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.criteria = nil
	s.chats = nil
	s.queries = nil
}

func (s *Store) add(list *[]ports.ListEntry, userID int64, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range *list {
		if e.UserID == userID && e.Value == value {
			return false
		}
	}

	*list = append(*list, ports.ListEntry{UserID: userID, Value: value, CreatedAt: time.Now()})

	return true
}

func (s *Store) list(list *[]ports.ListEntry, userID int64) []ports.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.ListEntry

	for _, e := range *list {
		if e.UserID == userID {
			out = append(out, e)
		}
	}

	return out
}

var _ ports.Store = (*Store)(nil)
