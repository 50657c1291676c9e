package filestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// flexTime reads epoch seconds or any common date string and writes epoch seconds.
type flexTime struct {
	time.Time
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Unix())
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}

		t.Time = time.Unix(int64(secs), 0).UTC()

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}

	parsed, err := parseTime(s)
	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}

// parseTime accepts RFC 3339, ISO 8601 with offsets and the other layouts
// dateparse knows. Blank input is the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}

	return parsed.UTC(), nil
}
