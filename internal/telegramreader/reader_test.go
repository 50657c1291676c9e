package telegramreader

import (
	"context"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
)

const (
	testChannelID = int64(555)
	relayMTProto  = int64(777)
	relayBotAPI   = -1000000000777
)

type fakeAPI struct {
	history      map[int][]tg.MessageClass // keyed by offset id
	historyCalls []*tg.MessagesGetHistoryRequest
	floods       int

	dialogs []tg.ChatClass

	forwardReq *tg.MessagesForwardMessagesRequest
	reorder    bool
}

func (f *fakeAPI) MessagesGetHistory(_ context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	if f.floods > 0 {
		f.floods--
		return nil, tgerr.New(420, "FLOOD_WAIT_0")
	}

	f.historyCalls = append(f.historyCalls, req)

	msgs := f.history[req.OffsetID]
	if len(msgs) > req.Limit {
		msgs = msgs[:req.Limit]
	}

	return &tg.MessagesChannelMessages{
		Messages: msgs,
		Chats:    []tg.ChatClass{&tg.Channel{ID: testChannelID, AccessHash: 42, Username: "golang_news"}},
	}, nil
}

func (f *fakeAPI) MessagesGetDialogs(_ context.Context, _ *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
	return &tg.MessagesDialogs{Chats: f.dialogs}, nil
}

func (f *fakeAPI) MessagesForwardMessages(_ context.Context, req *tg.MessagesForwardMessagesRequest) (tg.UpdatesClass, error) {
	f.forwardReq = req

	updates := make([]tg.UpdateClass, 0, len(req.ID))
	for i := range req.ID {
		updates = append(updates, &tg.UpdateMessageID{ID: 1000 + i, RandomID: req.RandomID[i]})
	}

	if f.reorder {
		for i, j := 0, len(updates)-1; i < j; i, j = i+1, j-1 {
			updates[i], updates[j] = updates[j], updates[i]
		}
	}

	return &tg.Updates{Updates: updates}, nil
}

func (f *fakeAPI) ContactsResolveUsername(_ context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
	if req.Username != "golang_news" {
		return nil, tgerr.New(400, "USERNAME_NOT_OCCUPIED")
	}

	return &tg.ContactsResolvedPeer{
		Peer:  &tg.PeerChannel{ChannelID: testChannelID},
		Chats: []tg.ChatClass{&tg.Channel{ID: testChannelID, AccessHash: 42, Username: "golang_news"}},
	}, nil
}

func messages(from, to int) []tg.MessageClass {
	out := make([]tg.MessageClass, 0, from-to+1)
	for id := from; id >= to; id-- {
		out = append(out, &tg.Message{ID: id, Message: "post", PeerID: &tg.PeerChannel{ChannelID: testChannelID}})
	}

	return out
}

func newTestReader(f *fakeAPI, relay int64) *Reader {
	r := New(&config.Config{RelayChatID: relay}, nil)
	r.setAPI(f)

	return r
}

func TestFetchHistory_NotReady(t *testing.T) {
	r := New(&config.Config{}, nil)

	_, err := r.FetchHistory(context.Background(), domain.ChatRef{Username: "golang_news"}, 10)
	assert.ErrorIs(t, err, apperrors.ErrClientNotInitialized)
}

func TestFetchHistory_Pages(t *testing.T) {
	f := &fakeAPI{history: map[int][]tg.MessageClass{
		0:   messages(250, 151),
		151: messages(150, 51),
		51:  messages(50, 1),
	}}
	r := newTestReader(f, 0)

	select {
	case <-r.Ready():
	default:
		t.Fatal("reader should be ready after setAPI")
	}

	got, err := r.FetchHistory(context.Background(), domain.ChatRef{Username: "golang_news"}, 230)
	require.NoError(t, err)

	require.Len(t, got, 230)
	assert.Equal(t, int64(250), got[0].ID)
	assert.Equal(t, int64(21), got[229].ID)
	assert.Equal(t, "golang_news", got[0].Meta.SenderUsername)

	require.Len(t, f.historyCalls, 3)
	assert.Equal(t, 30, f.historyCalls[2].Limit)
}

func TestFetchHistory_StopsOnShortPage(t *testing.T) {
	f := &fakeAPI{history: map[int][]tg.MessageClass{0: messages(5, 1)}}
	r := newTestReader(f, 0)

	got, err := r.FetchHistory(context.Background(), domain.ChatRef{Username: "golang_news"}, 200)
	require.NoError(t, err)

	assert.Len(t, got, 5)
	assert.Len(t, f.historyCalls, 1)
}

func TestFetchHistory_RetriesFloodWait(t *testing.T) {
	f := &fakeAPI{history: map[int][]tg.MessageClass{0: messages(3, 1)}, floods: 2}
	r := newTestReader(f, 0)

	got, err := r.FetchHistory(context.Background(), domain.ChatRef{Username: "golang_news"}, 10)
	require.NoError(t, err)

	assert.Len(t, got, 3)
	assert.Zero(t, f.floods)
}

func TestResolveUsername(t *testing.T) {
	f := &fakeAPI{dialogs: []tg.ChatClass{
		&tg.Channel{ID: 900, AccessHash: 1, Username: "public_one"},
		&tg.Channel{ID: 901, AccessHash: 2},
	}}
	r := newTestReader(f, 0)

	name, err := r.ResolveUsername(context.Background(), domain.ChatRef{ID: -1000000000900})
	require.NoError(t, err)
	assert.Equal(t, "public_one", name)

	name, err = r.ResolveUsername(context.Background(), domain.ChatRef{ID: -1000000000901})
	assert.ErrorIs(t, err, apperrors.ErrNoPublicUsername)
	assert.Empty(t, name)

	_, err = r.ResolveUsername(context.Background(), domain.ChatRef{ID: -1000000000999})
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)
}

func TestForwardToRelay(t *testing.T) {
	tests := []struct {
		name    string
		reorder bool
	}{
		{name: "in order"},
		{name: "updates out of order", reorder: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAPI{
				dialogs: []tg.ChatClass{&tg.Channel{ID: relayMTProto, AccessHash: 5}},
				reorder: tt.reorder,
			}
			r := newTestReader(f, relayBotAPI)

			got, err := r.ForwardToRelay(context.Background(), domain.ChatRef{Username: "golang_news"}, []int64{10, 11, 12})
			require.NoError(t, err)

			assert.Equal(t, []int64{1000, 1001, 1002}, got)
			assert.Equal(t, []int{10, 11, 12}, f.forwardReq.ID)
			assert.Equal(t, &tg.InputPeerChannel{ChannelID: relayMTProto, AccessHash: 5}, f.forwardReq.ToPeer)
			assert.Equal(t, &tg.InputPeerChannel{ChannelID: testChannelID, AccessHash: 42}, f.forwardReq.FromPeer)
		})
	}
}

func TestForwardToRelay_NotConfigured(t *testing.T) {
	r := newTestReader(&fakeAPI{}, 0)

	_, err := r.ForwardToRelay(context.Background(), domain.ChatRef{Username: "golang_news"}, []int64{1})
	assert.ErrorIs(t, err, apperrors.ErrRelayUnavailable)
}

func TestRelayIDs_Mismatch(t *testing.T) {
	updates := &tg.Updates{Updates: []tg.UpdateClass{&tg.UpdateMessageID{ID: 5, RandomID: 1}}}

	_, err := relayIDs(updates, map[int64]int{1: 0, 2: 1}, 2)
	assert.ErrorIs(t, err, apperrors.ErrRelayMismatch)
}
