// Package links builds public permalinks back to source posts.
package links

import (
	"context"
	"fmt"
	"strings"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

const tmeBase = "https://t.me/"

// UsernameResolver looks up the public username of a chat. A chat without one
// yields apperrors.ErrNoPublicUsername.
type UsernameResolver interface {
	ResolveUsername(ctx context.Context, chat domain.ChatRef) (string, error)
}

// OriginLink returns a t.me permalink for msgID in chat. A username ref links
// directly; otherwise the resolver is asked for a public username, and private
// numeric chats fall back to the t.me/c form. resolver may be nil.
func OriginLink(ctx context.Context, resolver UsernameResolver, chat domain.ChatRef, msgID int64) (string, bool) {
	if chat.IsUsername() {
		return usernameLink(chat.Username, msgID), true
	}

	if resolver != nil {
		if name, err := resolver.ResolveUsername(ctx, chat); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				return usernameLink(name, msgID), true
			}
		}
	}

	if chat.ID != 0 {
		return fmt.Sprintf("%sc/%d/%d", tmeBase, chat.InternalID(), msgID), true
	}

	return "", false
}

func usernameLink(name string, msgID int64) string {
	return fmt.Sprintf("%s%s/%d", tmeBase, strings.TrimPrefix(name, "@"), msgID)
}
