// Package ports provides domain-centric interfaces for external dependencies.
// The bot depends on these; the file and PostgreSQL stores implement them.
package ports

import (
	"context"
	"time"
)

// CriterionRecord is one saved ranking criterion.
type CriterionRecord struct {
	Criterion string
	UserID    int64
	CreatedAt time.Time
}

// ListEntry is one item of a per-user list (saved chat or saved query).
type ListEntry struct {
	UserID    int64
	Value     string
	CreatedAt time.Time
}

// CriterionStore keeps the history of criteria users saved. The most recent
// one is used for ranking.
type CriterionStore interface {
	AppendCriterion(ctx context.Context, userID int64, criterion string) error
	// LatestCriterion returns ok=false when the user saved nothing.
	LatestCriterion(ctx context.Context, userID int64) (criterion string, ok bool, err error)
}

// UserListStore keeps per-user chat and query lists. Adding a value the user
// already has is a no-op reporting added=false.
type UserListStore interface {
	AddChat(ctx context.Context, userID int64, chat string) (added bool, err error)
	ListChats(ctx context.Context, userID int64) ([]ListEntry, error)
	AddQuery(ctx context.Context, userID int64, criterion string) (added bool, err error)
	ListQueries(ctx context.Context, userID int64) ([]ListEntry, error)
}

// Store is what a storage backend provides.
type Store interface {
	CriterionStore
	UserListStore
	Ping(ctx context.Context) error
	Close()
}
