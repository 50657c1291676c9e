package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

// ChatRef identifies a source chat either by public username or by numeric id.
// Numeric ids use the bot API form, e.g. -1001234567890 for channels.
type ChatRef struct {
	Username string
	ID       int64
}

// ParseChatRef accepts "@name" or a signed integer.
func ParseChatRef(s string) (ChatRef, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "@") {
		name := strings.TrimPrefix(s, "@")
		if name == "" || strings.ContainsAny(name, " \t/") {
			return ChatRef{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidChatRef, s)
		}

		return ChatRef{Username: name}, nil
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return ChatRef{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidChatRef, s)
	}

	return ChatRef{ID: id}, nil
}

// IsUsername reports whether the ref names a public username.
func (c ChatRef) IsUsername() bool {
	return c.Username != ""
}

// String renders the ref the way the user typed it.
func (c ChatRef) String() string {
	if c.Username != "" {
		return "@" + c.Username
	}

	return strconv.FormatInt(c.ID, 10)
}

// InternalID strips the bot API "-100" channel prefix and returns the bare peer id.
// Basic group ids (plain negative numbers) lose their sign only.
func (c ChatRef) InternalID() int64 {
	id := c.ID
	if id < 0 {
		id = -id
	}

	s := strconv.FormatInt(id, 10)
	if strings.HasPrefix(s, "100") && len(s) > 3 {
		if v, err := strconv.ParseInt(s[3:], 10, 64); err == nil {
			return v
		}
	}

	return id
}
