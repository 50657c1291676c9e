// Package telegramreader is the MTProto user client: it reads chat history,
// resolves peers and forwards posts into the relay chat.
package telegramreader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/worker"
)

const (
	historyPageSize = 100
	maxFloodRetries = 3
	floodWaitType   = "FLOOD_WAIT"
	logKeyChat      = "chat"
)

// api is the subset of *tg.Client the reader calls.
type api interface {
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	MessagesForwardMessages(ctx context.Context, request *tg.MessagesForwardMessagesRequest) (tg.UpdatesClass, error)
	ContactsResolveUsername(ctx context.Context, request *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
}

type Reader struct {
	cfg    *config.Config
	logger *zerolog.Logger
	peers  *peerCache

	mu    sync.RWMutex
	api   api
	ready chan struct{}
	once  sync.Once
}

func New(cfg *config.Config, logger *zerolog.Logger) *Reader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Reader{
		cfg:    cfg,
		logger: logger,
		peers:  newPeerCache(),
		ready:  make(chan struct{}),
	}
}

func (r *Reader) newClient() *telegram.Client {
	return telegram.NewClient(r.cfg.TGAPIID, r.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: r.cfg.TGSessionPath,
		},
	})
}

// Run connects, authenticates if needed and serves requests until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	client := r.newClient()

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		r.logger.Info().Msg("Successfully authenticated as user")
		r.setAPI(tg.NewClient(client))

		<-ctx.Done()

		return nil
	})
}

// Login runs the interactive authentication and exits.
func (r *Reader) Login(ctx context.Context) error {
	client := r.newClient()

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetch self: %w", err)
		}

		r.logger.Info().Int64("user_id", self.ID).Str("username", self.Username).Msg("Logged in, session saved")

		return nil
	})
}

// Ready is closed once the client is authenticated.
func (r *Reader) Ready() <-chan struct{} {
	return r.ready
}

func (r *Reader) setAPI(a api) {
	r.mu.Lock()
	r.api = a
	r.mu.Unlock()

	r.once.Do(func() { close(r.ready) })
}

func (r *Reader) client() (api, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.api == nil {
		return nil, apperrors.ErrClientNotInitialized
	}

	return r.api, nil
}

// FetchHistory returns up to count most recent messages of chat, newest first.
func (r *Reader) FetchHistory(ctx context.Context, chat domain.ChatRef, count int) ([]domain.Fragment, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	peer, err := r.resolvePeer(ctx, client, chat)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Fragment, 0, count)
	offsetID := 0

	for len(out) < count {
		limit := min(historyPageSize, count-len(out))

		var page historyPage

		err := r.withFloodWait(ctx, func() error {
			var callErr error
			page, callErr = getHistoryPage(ctx, client, peer, offsetID, limit)

			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("get history of %s: %w", chat, err)
		}

		r.peers.remember(page.chats, page.users)
		out = append(out, convertMessages(page.messages, page.users, page.chats)...)

		if len(page.messages) < limit || page.minID == 0 {
			break
		}

		offsetID = page.minID
	}

	r.logger.Debug().Str(logKeyChat, chat.String()).Int("requested", count).Int("fetched", len(out)).Msg("history fetched")

	return out, nil
}

type historyPage struct {
	messages []tg.MessageClass
	chats    []tg.ChatClass
	users    []tg.UserClass
	minID    int
}

func getHistoryPage(ctx context.Context, client api, peer tg.InputPeerClass, offsetID, limit int) (historyPage, error) {
	history, err := client.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     peer,
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		return historyPage{}, err
	}

	var page historyPage

	switch h := history.(type) {
	case *tg.MessagesMessages:
		page = historyPage{messages: h.Messages, chats: h.Chats, users: h.Users}
	case *tg.MessagesMessagesSlice:
		page = historyPage{messages: h.Messages, chats: h.Chats, users: h.Users}
	case *tg.MessagesChannelMessages:
		page = historyPage{messages: h.Messages, chats: h.Chats, users: h.Users}
	case *tg.MessagesMessagesNotModified:
		return historyPage{}, nil
	default:
		return historyPage{}, fmt.Errorf("%w: %T", apperrors.ErrUnexpectedType, history)
	}

	for _, m := range page.messages {
		if id := m.GetID(); page.minID == 0 || id < page.minID {
			page.minID = id
		}
	}

	return page, nil
}

// withFloodWait runs fn, sleeping through FLOOD_WAIT answers.
func (r *Reader) withFloodWait(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		floodErr, ok := tgerr.As(err)
		if !ok || floodErr.Type != floodWaitType || attempt >= maxFloodRetries {
			return err
		}

		observability.TelegramFloodWaits.Inc()
		r.logger.Warn().Int("seconds", floodErr.Argument).Msg("flood wait")

		if err := worker.Wait(ctx, time.Duration(floodErr.Argument)*time.Second); err != nil {
			return err
		}
	}
}
