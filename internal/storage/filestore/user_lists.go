package filestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
)

// List file names inside the data directory.
const (
	ChatsFile   = "user_chats.jsonl"
	QueriesFile = "user_queries.jsonl"
)

const (
	fieldChat      = "chat"
	fieldCriterion = "criterion"

	maxLineSize = 1 << 20
)

type listRecord struct {
	TS     flexTime `json:"ts"`
	UserID int64    `json:"user_id"`
	Value  string   `json:"-"`
}

// UserList is a JSONL file of {ts, user_id, <field>} records. Each user sees a
// value at most once.
type UserList struct {
	path   string
	field  string
	mu     sync.Mutex
	now    func() time.Time
	logger *zerolog.Logger
}

func NewUserList(path, field string, logger *zerolog.Logger) *UserList {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &UserList{path: path, field: field, now: time.Now, logger: logger}
}

// Add appends value for userID unless it is blank or already listed.
func (l *UserList) Add(userID int64, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.readAll() {
		if r.UserID == userID && r.Value == value {
			return false, nil
		}
	}

	line, err := l.encode(listRecord{TS: flexTime{l.now().UTC()}, UserID: userID, Value: value})
	if err != nil {
		return false, err
	}

	if err := appendLine(l.path, line); err != nil {
		return false, err
	}

	return true, nil
}

// List returns userID's values in insertion order.
func (l *UserList) List(userID int64) []ports.ListEntry {
	l.mu.Lock()
	records := l.readAll()
	l.mu.Unlock()

	var out []ports.ListEntry

	seen := make(map[string]struct{})

	for _, r := range records {
		if r.UserID != userID {
			continue
		}

		if _, dup := seen[r.Value]; dup {
			continue
		}

		seen[r.Value] = struct{}{}

		out = append(out, ports.ListEntry{UserID: r.UserID, Value: r.Value, CreatedAt: r.TS.Time})
	}

	return out
}

func (l *UserList) encode(r listRecord) ([]byte, error) {
	fields := map[string]any{
		"ts":      r.TS,
		"user_id": r.UserID,
		l.field:   r.Value,
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode list record: %w", err)
	}

	return data, nil
}

func (l *UserList) decode(line []byte) (listRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return listRecord{}, err
	}

	var r listRecord

	if ts, ok := raw["ts"]; ok {
		if err := json.Unmarshal(ts, &r.TS); err != nil {
			return listRecord{}, err
		}
	}

	if uid, ok := raw["user_id"]; ok {
		if err := json.Unmarshal(uid, &r.UserID); err != nil {
			return listRecord{}, err
		}
	}

	if v, ok := raw[l.field]; ok {
		if err := json.Unmarshal(v, &r.Value); err != nil {
			return listRecord{}, err
		}
	}

	r.Value = strings.TrimSpace(r.Value)

	return r, nil
}

// readAll skips blank and corrupt lines.
func (l *UserList) readAll() []listRecord {
	f, err := os.Open(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn().Err(err).Str(logKeyPath, l.path).Msg("failed to open user list")
		}

		return nil
	}
	defer f.Close()

	var records []listRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		r, err := l.decode(line)
		if err != nil {
			l.logger.Warn().Err(err).Str(logKeyPath, l.path).Int("line", lineNo).Msg("skipping corrupt list record")
			continue
		}

		if r.Value == "" {
			continue
		}

		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warn().Err(err).Str(logKeyPath, l.path).Msg("failed to scan user list")
	}

	return records
}
