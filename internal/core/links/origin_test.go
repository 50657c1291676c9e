package links

import (
	"context"
	"errors"
	"testing"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

type resolverFunc func(ctx context.Context, chat domain.ChatRef) (string, error)

func (f resolverFunc) ResolveUsername(ctx context.Context, chat domain.ChatRef) (string, error) {
	return f(ctx, chat)
}

func TestOriginLink(t *testing.T) {
	public := resolverFunc(func(context.Context, domain.ChatRef) (string, error) { return "golang_news", nil })
	private := resolverFunc(func(context.Context, domain.ChatRef) (string, error) { return "", apperrors.ErrNoPublicUsername })
	blank := resolverFunc(func(context.Context, domain.ChatRef) (string, error) { return "  ", nil })
	broken := resolverFunc(func(context.Context, domain.ChatRef) (string, error) { return "", errors.New("no peer") })

	tests := []struct {
		name     string
		resolver UsernameResolver
		chat     domain.ChatRef
		msgID    int64
		want     string
		wantOK   bool
	}{
		{name: "username ref", resolver: broken, chat: domain.ChatRef{Username: "durov"}, msgID: 42, want: "https://t.me/durov/42", wantOK: true},
		{name: "resolved username", resolver: public, chat: domain.ChatRef{ID: -1001234567890}, msgID: 7, want: "https://t.me/golang_news/7", wantOK: true},
		{name: "private channel", resolver: private, chat: domain.ChatRef{ID: -1001234567890}, msgID: 7, want: "https://t.me/c/1234567890/7", wantOK: true},
		{name: "blank username", resolver: blank, chat: domain.ChatRef{ID: -1001234567890}, msgID: 8, want: "https://t.me/c/1234567890/8", wantOK: true},
		{name: "resolver failure", resolver: broken, chat: domain.ChatRef{ID: -1001234567890}, msgID: 9, want: "https://t.me/c/1234567890/9", wantOK: true},
		{name: "nil resolver", resolver: nil, chat: domain.ChatRef{ID: -4567}, msgID: 1, want: "https://t.me/c/4567/1", wantOK: true},
		{name: "empty ref", resolver: private, chat: domain.ChatRef{}, msgID: 1, want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OriginLink(context.Background(), tt.resolver, tt.chat, tt.msgID)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("OriginLink(%v, %d) = (%q, %v), want (%q, %v)", tt.chat, tt.msgID, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
