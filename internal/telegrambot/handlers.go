package telegrambot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	"github.com/lueurxax/telegram-post-ranker/internal/process/pipeline"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/worker"
)

// Keyboard labels.
const (
	buttonSearchChat = "🔎 Search chat"
	buttonSaveFilter = "💾 Save filter"
	buttonAddChat    = "➕ Add chat"
	buttonMyChats    = "📋 My chats"
	buttonSearchMine = "🌐 Search my chats"
	buttonCancel     = "/cancel"
)

const (
	msgChoose          = "Choose an action."
	msgCancelled       = "Cancelled."
	msgAskChat         = "Send a numeric chat id or @username of a channel or chat. Example: <code>-1001234567890</code> or <code>@rentals_dn</code>."
	msgBadChat         = "That does not look like a chat id or @username. Try again or /cancel."
	msgAskFilter       = "Send the criterion to rank posts by. It will be saved and used for your next searches."
	msgEmptyFilter     = "An empty criterion is not saved."
	msgFilterSaved     = "Criterion saved."
	msgAskAddChat      = "Send the chat to remember: numeric id or @username."
	msgChatAdded       = "Chat added to your list."
	msgChatKnown       = "This chat is already in your list."
	msgNoChats         = "You have no saved chats yet. Use " + buttonAddChat + " first."
	msgBadSelection    = "Nothing selected. Send numbers like <code>1, 3-5</code> or <code>all</code>, or /cancel."
	msgBusy            = "A search is already running. Wait for it to finish."
	msgStoreFailed     = "Could not access saved data. Please try again later."
	msgNoPosts         = "No posts were analyzed."
	msgAskParamsTmpl   = "How many posts to analyze and from which offset? Format: <code>K</code> or <code>K OFFSET</code>.\nFor example <code>10</code> or <code>10 5</code>. Defaults: K=%d, OFFSET=0."
	msgDoneTmpl        = "Done. Analyzed %d posts and sent them in descending score order."
	msgEmptyChatTmpl   = "Could not read messages from %s or there are none."
	msgRunFailedTmpl   = "Analysis of %s failed. Please try again."
	msgChatHeaderTmpl  = "📣 %s"
	msgSelectChatsTmpl = "<b>Your chats</b>\n%s\nSend the numbers to search, like <code>1, 3-5</code>, or <code>all</code>."
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.logger.Info().Str("command", msg.Command()).Int64(logKeyUserID, userID).Msg("Handling command")

		switch msg.Command() {
		case "start", "help":
			b.sessions.reset(userID)
			b.reply(ctx, chatID, msgChoose, mainKeyboard())
		case "cancel":
			b.sessions.reset(userID)
			b.reply(ctx, chatID, msgCancelled, mainKeyboard())
		default:
			b.reply(ctx, chatID, "Unknown command", mainKeyboard())
		}

		return
	}

	text := strings.TrimSpace(msg.Text)

	switch text {
	case buttonCancel:
		b.sessions.reset(userID)
		b.reply(ctx, chatID, msgCancelled, mainKeyboard())

		return
	case buttonSearchChat:
		b.sessions.set(userID, session{state: stateWaitChat})
		b.reply(ctx, chatID, msgAskChat, cancelKeyboard())

		return
	case buttonSaveFilter:
		b.sessions.set(userID, session{state: stateWaitFilter})
		b.reply(ctx, chatID, msgAskFilter, cancelKeyboard())

		return
	case buttonAddChat:
		b.sessions.set(userID, session{state: stateWaitAddChat})
		b.reply(ctx, chatID, msgAskAddChat, cancelKeyboard())

		return
	case buttonMyChats:
		b.sessions.reset(userID)
		b.handleMyChats(ctx, userID, chatID)

		return
	case buttonSearchMine:
		b.handleSearchMine(ctx, userID, chatID)

		return
	}

	sess := b.sessions.get(userID)

	switch sess.state {
	case stateWaitChat:
		b.handleChatInput(ctx, userID, chatID, text)
	case stateWaitParams:
		b.handleParams(ctx, userID, chatID, sess, text)
	case stateWaitFilter:
		b.handleFilterInput(ctx, userID, chatID, text)
	case stateWaitAddChat:
		b.handleAddChat(ctx, userID, chatID, text)
	case stateWaitSelection:
		b.handleSelection(ctx, userID, chatID, sess, text)
	default:
		b.reply(ctx, chatID, msgChoose, mainKeyboard())
	}
}

func (b *Bot) askParams(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, fmt.Sprintf(msgAskParamsTmpl, b.opts.TopK), nil)
}

func (b *Bot) handleChatInput(ctx context.Context, userID, chatID int64, text string) {
	ref, err := domain.ParseChatRef(text)
	if err != nil {
		b.reply(ctx, chatID, msgBadChat, nil)
		return
	}

	b.sessions.set(userID, session{state: stateWaitParams, targets: []domain.ChatRef{ref}})
	b.askParams(ctx, chatID)
}

func (b *Bot) handleParams(ctx context.Context, userID, chatID int64, sess session, text string) {
	b.sessions.reset(userID)

	if len(sess.targets) == 0 {
		b.reply(ctx, chatID, msgChoose, mainKeyboard())
		return
	}

	k, offset := ParseParams(text, b.opts.TopK, b.opts.MaxTopK)

	if !b.sessions.startRun(userID) {
		b.reply(ctx, chatID, msgBusy, mainKeyboard())
		return
	}

	targets := sess.targets

	b.runs.Add(1)

	go func() {
		defer b.runs.Done()
		defer b.sessions.finishRun(userID)
		defer worker.RecoverPanic(b.logger, "ranking run")

		b.runSearch(ctx, userID, chatID, targets, k, offset)
	}()
}

func (b *Bot) handleFilterInput(ctx context.Context, userID, chatID int64, text string) {
	b.sessions.reset(userID)

	if text == "" {
		b.reply(ctx, chatID, msgEmptyFilter, mainKeyboard())
		return
	}

	if err := b.store.AppendCriterion(ctx, userID, text); err != nil {
		b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to save criterion")
		b.reply(ctx, chatID, msgStoreFailed, mainKeyboard())

		return
	}

	if _, err := b.store.AddQuery(ctx, userID, text); err != nil {
		b.logger.Warn().Err(err).Int64(logKeyUserID, userID).Msg("failed to add query to user list")
	}

	b.reply(ctx, chatID, msgFilterSaved, mainKeyboard())
}

func (b *Bot) handleAddChat(ctx context.Context, userID, chatID int64, text string) {
	ref, err := domain.ParseChatRef(text)
	if err != nil {
		b.reply(ctx, chatID, msgBadChat, nil)
		return
	}

	b.sessions.reset(userID)

	added, err := b.store.AddChat(ctx, userID, ref.String())
	if err != nil {
		b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to save chat")
		b.reply(ctx, chatID, msgStoreFailed, mainKeyboard())

		return
	}

	if !added {
		b.reply(ctx, chatID, msgChatKnown, mainKeyboard())
		return
	}

	b.reply(ctx, chatID, msgChatAdded, mainKeyboard())
}

func (b *Bot) handleMyChats(ctx context.Context, userID, chatID int64) {
	chats, err := b.store.ListChats(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to list chats")
		b.reply(ctx, chatID, msgStoreFailed, mainKeyboard())

		return
	}

	queries, err := b.store.ListQueries(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to list queries")
		b.reply(ctx, chatID, msgStoreFailed, mainKeyboard())

		return
	}

	var sb strings.Builder

	sb.WriteString("<b>Your chats</b>\n")

	if len(chats) == 0 {
		sb.WriteString("none\n")
	}

	for i, c := range chats {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(c.Value))
	}

	sb.WriteString("\n<b>Your filters</b>\n")

	if len(queries) == 0 {
		sb.WriteString("none\n")
	}

	for i, q := range queries {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(q.Value))
	}

	b.reply(ctx, chatID, strings.TrimRight(sb.String(), "\n"), mainKeyboard())
}

func (b *Bot) handleSearchMine(ctx context.Context, userID, chatID int64) {
	entries, err := b.store.ListChats(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to list chats")
		b.reply(ctx, chatID, msgStoreFailed, mainKeyboard())

		return
	}

	saved := make([]domain.ChatRef, 0, len(entries))

	for _, e := range entries {
		ref, err := domain.ParseChatRef(e.Value)
		if err != nil {
			b.logger.Warn().Err(err).Str("chat", e.Value).Msg("skipping unparsable saved chat")
			continue
		}

		saved = append(saved, ref)
	}

	if len(saved) == 0 {
		b.sessions.reset(userID)
		b.reply(ctx, chatID, msgNoChats, mainKeyboard())

		return
	}

	var list strings.Builder
	for i, ref := range saved {
		fmt.Fprintf(&list, "%d. %s\n", i+1, html.EscapeString(ref.String()))
	}

	b.sessions.set(userID, session{state: stateWaitSelection, saved: saved})
	b.reply(ctx, chatID, fmt.Sprintf(msgSelectChatsTmpl, list.String()), cancelKeyboard())
}

func (b *Bot) handleSelection(ctx context.Context, userID, chatID int64, sess session, text string) {
	targets, err := selectChats(sess.saved, text)
	if err != nil {
		b.logger.Debug().Err(err).Int64(logKeyUserID, userID).Msg("empty chat selection")
		b.reply(ctx, chatID, msgBadSelection, nil)

		return
	}

	b.sessions.set(userID, session{state: stateWaitParams, targets: targets})
	b.askParams(ctx, chatID)
}

func (b *Bot) criterionFor(ctx context.Context, userID int64) string {
	criterion, ok, err := b.store.LatestCriterion(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Int64(logKeyUserID, userID).Msg("failed to read saved criterion")
	}

	if err != nil || !ok {
		return b.opts.DefaultCriterion
	}

	return criterion
}

// runSearch ranks and delivers every target in turn. A failing chat is
// reported and skipped.
func (b *Bot) runSearch(ctx context.Context, userID, chatID int64, targets []domain.ChatRef, k, offset int) {
	criterion := b.criterionFor(ctx, userID)
	analyzed := 0

	for _, chat := range targets {
		if ctx.Err() != nil {
			return
		}

		label := html.EscapeString(chat.String())

		if len(targets) > 1 {
			b.reply(ctx, chatID, fmt.Sprintf(msgChatHeaderTmpl, label), nil)
		}

		res, err := b.ranker.Run(ctx, pipeline.Request{
			Chat:      chat,
			Limit:     k,
			Offset:    offset,
			Criterion: criterion,
		})
		if err != nil {
			b.logger.Error().Err(err).Str("chat", chat.String()).Int64(logKeyUserID, userID).Msg("ranking run failed")
			b.reply(ctx, chatID, fmt.Sprintf(msgRunFailedTmpl, label), nil)

			continue
		}

		if len(res.Ranked) == 0 {
			b.reply(ctx, chatID, fmt.Sprintf(msgEmptyChatTmpl, label), nil)
			continue
		}

		report, err := b.deliverer.Deliver(ctx, chatID, chat, res.Ranked)
		if err != nil {
			b.logger.Error().Err(err).Str("chat", chat.String()).Msg("delivery interrupted")
		}

		b.logger.Info().
			Str("chat", chat.String()).
			Int64(logKeyUserID, userID).
			Int("sent", report.Sent).
			Int("fallbacks", report.Fallbacks).
			Int("failed", report.Failed).
			Msg("Ranked posts delivered")

		analyzed += len(res.Ranked)
	}

	if analyzed == 0 {
		b.reply(ctx, chatID, msgNoPosts, mainKeyboard())
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf(msgDoneTmpl, analyzed), mainKeyboard())
}
