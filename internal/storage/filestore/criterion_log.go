package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FiltersFile is the criterion log name inside the data directory.
const FiltersFile = "filters.json"

// criterionRecord keeps the legacy "ts" key so old entries survive rewrites.
type criterionRecord struct {
	Criterion string `json:"criterion"`
	Timestamp string `json:"timestamp,omitempty"`
	LegacyTS  string `json:"ts,omitempty"`
	UserID    int64  `json:"user_id"`
}

// CriterionLog is an append-only history of saved criteria stored as one JSON
// array. Every append rewrites the file atomically.
type CriterionLog struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *zerolog.Logger
}

func NewCriterionLog(path string, logger *zerolog.Logger) *CriterionLog {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &CriterionLog{path: path, now: time.Now, logger: logger}
}

// Append adds a record stamped with the current UTC time.
func (l *CriterionLog) Append(userID int64, criterion string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.readAll()
	records = append(records, criterionRecord{
		Criterion: criterion,
		Timestamp: l.now().UTC().Format(time.RFC3339),
		UserID:    userID,
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}

	return writeFileAtomic(l.path, data)
}

// Latest returns the newest non-blank criterion saved by userID.
func (l *CriterionLog) Latest(userID int64) (string, bool) {
	l.mu.Lock()
	records := l.readAll()
	l.mu.Unlock()

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.UserID != userID {
			continue
		}

		if c := strings.TrimSpace(r.Criterion); c != "" {
			return c, true
		}
	}

	return "", false
}

// readAll treats a missing or unreadable file as an empty history.
func (l *CriterionLog) readAll() []criterionRecord {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn().Err(err).Str(logKeyPath, l.path).Msg("failed to read criterion log")
		}

		return nil
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var records []criterionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.Warn().Err(err).Str(logKeyPath, l.path).Msg("criterion log is corrupt, starting empty")
		return nil
	}

	return records
}
