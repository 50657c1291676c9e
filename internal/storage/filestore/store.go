package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
)

const logKeyPath = "path"

// Store implements ports.Store on top of the data directory.
type Store struct {
	dir      string
	criteria *CriterionLog
	chats    *UserList
	queries  *UserList
}

var _ ports.Store = (*Store)(nil)

// New prepares dataDir and the three files inside it.
func New(dataDir string, logger *zerolog.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir: %w", apperrors.ErrInvalidInput)
	}

	if err := os.MkdirAll(dataDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &Store{
		dir:      dataDir,
		criteria: NewCriterionLog(filepath.Join(dataDir, FiltersFile), logger),
		chats:    NewUserList(filepath.Join(dataDir, ChatsFile), fieldChat, logger),
		queries:  NewUserList(filepath.Join(dataDir, QueriesFile), fieldCriterion, logger),
	}, nil
}

func (s *Store) AppendCriterion(_ context.Context, userID int64, criterion string) error {
	return s.criteria.Append(userID, criterion)
}

func (s *Store) LatestCriterion(_ context.Context, userID int64) (string, bool, error) {
	c, ok := s.criteria.Latest(userID)
	return c, ok, nil
}

func (s *Store) AddChat(_ context.Context, userID int64, chat string) (bool, error) {
	return s.chats.Add(userID, chat)
}

func (s *Store) ListChats(_ context.Context, userID int64) ([]ports.ListEntry, error) {
	return s.chats.List(userID), nil
}

func (s *Store) AddQuery(_ context.Context, userID int64, criterion string) (bool, error) {
	return s.queries.Add(userID, criterion)
}

func (s *Store) ListQueries(_ context.Context, userID int64) ([]ports.ListEntry, error) {
	return s.queries.List(userID), nil
}

// Ping reports whether the data directory is still there.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("data dir %s: %w", s.dir, apperrors.ErrInvalidInput)
	}

	return nil
}

func (s *Store) Close() {}
