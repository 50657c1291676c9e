// Package delivery sends ranked posts to the requester, rebuilding media
// posts through a relay chat and appending provenance to every item.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/core/links"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
)

// Delivery modes used for metrics.
const (
	ModeMedia    = "media"
	ModeText     = "text"
	ModeFallback = "fallback"
	ModeSkipped  = "skipped"
	ModeFailed   = "failed"
)

const (
	maxMessageRunes = 4096
	missingLink     = "n/a"
	ellipsis        = "…"
)

// Relay copies source messages into the relay chat and returns their new ids
// in the same order as ids.
type Relay interface {
	ForwardToRelay(ctx context.Context, source domain.ChatRef, ids []int64) ([]int64, error)
}

// Sender is the bot side of delivery.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	CopyMessage(ctx context.Context, toChatID, fromChatID, msgID int64) error
}

// Report counts what happened to each ranked item.
type Report struct {
	Sent      int
	Skipped   int
	Fallbacks int
	Failed    int
}

type Coordinator struct {
	sender      Sender
	relay       Relay
	resolver    links.UsernameResolver
	relayChatID int64
	logger      *zerolog.Logger
}

// New creates a coordinator. relay may be nil or relayChatID zero, in which
// case media posts are delivered as text.
func New(sender Sender, relay Relay, resolver links.UsernameResolver, relayChatID int64, logger *zerolog.Logger) *Coordinator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Coordinator{
		sender:      sender,
		relay:       relay,
		resolver:    resolver,
		relayChatID: relayChatID,
		logger:      logger,
	}
}

// Deliver sends results to recipient in the given order. A failing item is
// logged and counted; only context cancellation stops the loop.
func (c *Coordinator) Deliver(ctx context.Context, recipient int64, source domain.ChatRef, results []domain.ScoreResult) (Report, error) {
	var report Report

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("delivery interrupted: %w", err)
		}

		post := res.Post
		if post == nil || !post.HasText() {
			report.Skipped++
			observability.Deliveries.WithLabelValues(ModeSkipped).Inc()

			continue
		}

		mode, err := c.deliverOne(ctx, recipient, source, res)
		if err != nil {
			report.Failed++
			observability.Deliveries.WithLabelValues(ModeFailed).Inc()

			c.logger.Warn().
				Err(err).
				Int("rank", i+1).
				Int64("user_id", recipient).
				Str("chat", source.String()).
				Msg("failed to deliver ranked post")

			continue
		}

		report.Sent++
		if mode == ModeFallback {
			report.Fallbacks++
		}

		observability.Deliveries.WithLabelValues(mode).Inc()
	}

	return report, nil
}

func (c *Coordinator) deliverOne(ctx context.Context, recipient int64, source domain.ChatRef, res domain.ScoreResult) (string, error) {
	post := res.Post

	linkID := post.CaptionSourceID
	if linkID == 0 {
		linkID = post.FirstID()
	}

	link, _ := links.OriginLink(ctx, c.resolver, source, linkID)
	tail := Trailer(link, res.Score, res.Reason)

	if !post.HasMedia {
		return ModeText, c.sender.SendText(ctx, recipient, composeText(post.Text, tail))
	}

	err := c.copyViaRelay(ctx, recipient, source, post)
	if err == nil {
		return ModeMedia, c.sender.SendText(ctx, recipient, tail)
	}

	c.logger.Info().
		Err(err).
		Ints64("ids", post.MemberIDs).
		Str("chat", source.String()).
		Msg("relay delivery failed, sending text")

	return ModeFallback, c.sender.SendText(ctx, recipient, composeText(post.Text, tail))
}

// copyViaRelay forwards the whole post to the relay chat, then copies only the
// caption-bearing member so the recipient gets the media with its caption.
func (c *Coordinator) copyViaRelay(ctx context.Context, recipient int64, source domain.ChatRef, post *domain.LogicalPost) error {
	if c.relay == nil || c.relayChatID == 0 {
		return apperrors.ErrRelayUnavailable
	}

	idx := post.CaptionIndex()
	if idx < 0 {
		return fmt.Errorf("%w: caption member missing", apperrors.ErrRelayMismatch)
	}

	relayed, err := c.relay.ForwardToRelay(ctx, source, post.MemberIDs)
	if err != nil {
		return fmt.Errorf("forward to relay: %w", err)
	}

	if idx >= len(relayed) || relayed[idx] == 0 {
		return fmt.Errorf("%w: got %d ids for %d members", apperrors.ErrRelayMismatch, len(relayed), len(post.MemberIDs))
	}

	if err := c.sender.CopyMessage(ctx, recipient, c.relayChatID, relayed[idx]); err != nil {
		return fmt.Errorf("copy from relay: %w", err)
	}

	return nil
}

// Trailer renders the provenance line appended to every delivered post.
func Trailer(link string, score float64, reason string) string {
	if link == "" {
		link = missingLink
	}

	tail := fmt.Sprintf("🔗 Source: %s\n⭐ Score: %.2f", link, score)
	if reason = strings.TrimSpace(reason); reason != "" {
		tail += " — " + reason
	}

	return tail
}

// composeText joins post text and trailer, shortening the text so the whole
// message fits one Telegram message.
func composeText(text, tail string) string {
	budget := maxMessageRunes - utf8.RuneCountInString(tail) - 2
	if utf8.RuneCountInString(text) > budget {
		runes := []rune(text)
		text = string(runes[:max(budget-1, 0)]) + ellipsis
	}

	return text + "\n\n" + tail
}
