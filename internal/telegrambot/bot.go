// Package telegrambot is the Bot API front end: a reply-keyboard conversation
// that collects a source chat and page parameters, runs the ranking pipeline
// and delivers the ranked posts back to the user.
package telegrambot

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
	"github.com/lueurxax/telegram-post-ranker/internal/delivery"
	"github.com/lueurxax/telegram-post-ranker/internal/process/pipeline"
)

const (
	updatesTimeout = 60
	maxReplyLen    = 4000

	logKeyUserID = "user_id"
)

// Ranker runs one ranking request.
type Ranker interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Deliverer sends ranked posts to a user.
type Deliverer interface {
	Deliver(ctx context.Context, recipient int64, source domain.ChatRef, results []domain.ScoreResult) (delivery.Report, error)
}

// Options tunes the conversation.
type Options struct {
	// AdminIDs limits who may talk to the bot. Empty allows everyone.
	AdminIDs         []int64
	TopK             int
	MaxTopK          int
	DefaultCriterion string
}

type Bot struct {
	api       botAPI
	sender    *Sender
	store     ports.Store
	ranker    Ranker
	deliverer Deliverer
	opts      Options
	sessions  *sessions
	runs      sync.WaitGroup
	logger    *zerolog.Logger
}

// NewAPI connects to the Bot API with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return api, nil
}

func New(api botAPI, sender *Sender, store ports.Store, ranker Ranker, deliverer Deliverer, opts Options, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if sender == nil {
		sender = NewSender(api, logger)
	}

	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	if opts.MaxTopK < opts.TopK {
		opts.MaxTopK = max(opts.TopK, 100)
	}

	return &Bot{
		api:       api,
		sender:    sender,
		store:     store,
		ranker:    ranker,
		deliverer: deliverer,
		opts:      opts,
		sessions:  newSessions(),
		logger:    logger,
	}
}

// Run polls updates until ctx is canceled, then waits for in-flight ranking
// runs to finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updatesTimeout

	updates := b.api.GetUpdatesChan(u)

	defer func() {
		b.api.StopReceivingUpdates()
		b.runs.Wait()
	}()

	b.logger.Info().Msg("Bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	if !b.isAllowed(msg.From.ID) {
		b.logger.Warn().Int64(logKeyUserID, msg.From.ID).Str("username", msg.From.UserName).Msg("Unauthorized access attempt")
		return
	}

	b.handleMessage(ctx, msg)
}

func (b *Bot) isAllowed(userID int64) bool {
	return len(b.opts.AdminIDs) == 0 || slices.Contains(b.opts.AdminIDs, userID)
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSearchChat),
			tgbotapi.NewKeyboardButton(buttonSaveFilter),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonAddChat),
			tgbotapi.NewKeyboardButton(buttonMyChats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSearchMine),
		),
	)
	kb.ResizeKeyboard = true

	return kb
}

// cancelKeyboard replaces the main keyboard while the bot waits for input.
func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
	kb.ResizeKeyboard = true

	return kb
}

// reply sends an HTML message. markup may be nil to keep the current keyboard.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup interface{}) {
	parts := splitLines(text, maxReplyLen)

	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if i == len(parts)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}

		if err := b.sender.send(ctx, msg); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
			return
		}
	}
}

// splitLines cuts text at line breaks into parts of at most limit bytes.
// A single line longer than limit is cut as is.
func splitLines(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()

			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}

			parts = append(parts, line[:cut])
			line = line[cut:]
		}

		if cur.Len()+len(line) > limit {
			flush()
		}

		cur.WriteString(line)
	}

	flush()

	return parts
}
