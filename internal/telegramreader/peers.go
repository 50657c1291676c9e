package telegramreader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

const (
	dialogsPageSize = 100
	maxDialogPages  = 20

	// channelIDShift turns an MTProto channel id into its bot API form.
	channelIDShift = 1_000_000_000_000
)

type peerEntry struct {
	input    tg.InputPeerClass
	username string
}

// peerCache maps bot API ids and lowercase usernames to input peers.
type peerCache struct {
	mu     sync.RWMutex
	byID   map[int64]peerEntry
	byName map[string]peerEntry
}

func newPeerCache() *peerCache {
	return &peerCache{
		byID:   make(map[int64]peerEntry),
		byName: make(map[string]peerEntry),
	}
}

func (c *peerCache) put(id int64, e peerEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID[id] = e
	if e.username != "" {
		c.byName[strings.ToLower(e.username)] = e
	}
}

func (c *peerCache) get(id int64) (peerEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byID[id]

	return e, ok
}

// lookup accepts the bot API id as well as a bare channel id.
func (c *peerCache) lookup(chat domain.ChatRef) (peerEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if chat.IsUsername() {
		e, ok := c.byName[strings.ToLower(chat.Username)]
		return e, ok
	}

	if e, ok := c.byID[chat.ID]; ok {
		return e, true
	}

	e, ok := c.byID[-(channelIDShift + chat.InternalID())]

	return e, ok
}

// remember caches every entity seen in an API response.
func (c *peerCache) remember(chats []tg.ChatClass, users []tg.UserClass) {
	for _, ch := range chats {
		switch v := ch.(type) {
		case *tg.Channel:
			c.put(-(channelIDShift + v.ID), peerEntry{
				input:    &tg.InputPeerChannel{ChannelID: v.ID, AccessHash: v.AccessHash},
				username: v.Username,
			})
		case *tg.Chat:
			c.put(-v.ID, peerEntry{input: &tg.InputPeerChat{ChatID: v.ID}})
		}
	}

	for _, u := range users {
		if v, ok := u.(*tg.User); ok {
			c.put(v.ID, peerEntry{
				input:    &tg.InputPeerUser{UserID: v.ID, AccessHash: v.AccessHash},
				username: v.Username,
			})
		}
	}
}

// ResolveUsername returns the public username of chat.
func (r *Reader) ResolveUsername(ctx context.Context, chat domain.ChatRef) (string, error) {
	if chat.IsUsername() {
		return chat.Username, nil
	}

	client, err := r.client()
	if err != nil {
		return "", err
	}

	if _, err := r.resolvePeer(ctx, client, chat); err != nil {
		return "", err
	}

	e, _ := r.peers.lookup(chat)
	if e.username == "" {
		return "", fmt.Errorf("%w: %s", apperrors.ErrNoPublicUsername, chat)
	}

	return e.username, nil
}

func (r *Reader) resolvePeer(ctx context.Context, client api, chat domain.ChatRef) (tg.InputPeerClass, error) {
	if e, ok := r.peers.lookup(chat); ok {
		return e.input, nil
	}

	if chat.IsUsername() {
		return r.resolveByUsername(ctx, client, chat)
	}

	return r.resolveByDialogs(ctx, client, chat)
}

func (r *Reader) resolveByUsername(ctx context.Context, client api, chat domain.ChatRef) (tg.InputPeerClass, error) {
	var resolved *tg.ContactsResolvedPeer

	err := r.withFloodWait(ctx, func() error {
		var callErr error
		resolved, callErr = client.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: chat.Username})

		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", chat, err)
	}

	r.peers.remember(resolved.Chats, resolved.Users)

	var id int64

	switch p := resolved.Peer.(type) {
	case *tg.PeerChannel:
		id = -(channelIDShift + p.ChannelID)
	case *tg.PeerChat:
		id = -p.ChatID
	case *tg.PeerUser:
		id = p.UserID
	}

	e, ok := r.peers.get(id)

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChatNotFound, chat)
	}

	if e.username == "" {
		e.username = chat.Username
		r.peers.put(id, e)
	}

	return e.input, nil
}

// resolveByDialogs pages through the account's dialogs until the numeric id
// shows up; private chats are reachable only this way.
func (r *Reader) resolveByDialogs(ctx context.Context, client api, chat domain.ChatRef) (tg.InputPeerClass, error) {
	req := &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsPageSize,
	}

	for range maxDialogPages {
		var res tg.MessagesDialogsClass

		err := r.withFloodWait(ctx, func() error {
			var callErr error
			res, callErr = client.MessagesGetDialogs(ctx, req)

			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("get dialogs: %w", err)
		}

		page, final := dialogsPage(res)
		r.peers.remember(page.chats, page.users)

		if e, ok := r.peers.lookup(chat); ok {
			return e.input, nil
		}

		if final || len(page.dialogs) < dialogsPageSize || !r.advanceDialogs(req, page) {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s", apperrors.ErrChatNotFound, chat)
}

type dialogs struct {
	dialogs  []tg.DialogClass
	messages []tg.MessageClass
	chats    []tg.ChatClass
	users    []tg.UserClass
}

func dialogsPage(res tg.MessagesDialogsClass) (dialogs, bool) {
	switch d := res.(type) {
	case *tg.MessagesDialogs:
		return dialogs{d.Dialogs, d.Messages, d.Chats, d.Users}, true
	case *tg.MessagesDialogsSlice:
		return dialogs{d.Dialogs, d.Messages, d.Chats, d.Users}, false
	default:
		return dialogs{}, true
	}
}

// advanceDialogs moves the request offset past the last dialog of page.
func (r *Reader) advanceDialogs(req *tg.MessagesGetDialogsRequest, page dialogs) bool {
	last := page.dialogs[len(page.dialogs)-1]
	topID := last.GetTopMessage()

	var key int64

	switch p := last.GetPeer().(type) {
	case *tg.PeerChannel:
		key = -(channelIDShift + p.ChannelID)
	case *tg.PeerChat:
		key = -p.ChatID
	case *tg.PeerUser:
		key = p.UserID
	default:
		return false
	}

	e, ok := r.peers.get(key)

	if !ok {
		return false
	}

	req.OffsetID = topID
	req.OffsetPeer = e.input
	req.OffsetDate = 0

	for _, m := range page.messages {
		if msg, ok := m.(*tg.Message); ok && msg.ID == topID {
			req.OffsetDate = msg.Date
			break
		}
	}

	return true
}
