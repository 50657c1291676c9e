package telegrambot

import (
	"sync"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

type convState int

const (
	stateIdle convState = iota
	stateWaitChat
	stateWaitParams
	stateWaitFilter
	stateWaitAddChat
	stateWaitSelection
)

// session is one user's position in a conversation.
type session struct {
	state   convState
	targets []domain.ChatRef
	saved   []domain.ChatRef
}

// sessions guards per-user conversation state and in-flight runs.
type sessions struct {
	mu      sync.Mutex
	byUser  map[int64]session
	running map[int64]bool
}

func newSessions() *sessions {
	return &sessions{
		byUser:  make(map[int64]session),
		running: make(map[int64]bool),
	}
}

func (s *sessions) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.byUser[userID]
}

func (s *sessions) set(userID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[userID] = sess
}

func (s *sessions) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUser, userID)
}

// startRun marks a run for userID; false means one is already in flight.
func (s *sessions) startRun(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[userID] {
		return false
	}

	s.running[userID] = true

	return true
}

func (s *sessions) finishRun(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, userID)
}
