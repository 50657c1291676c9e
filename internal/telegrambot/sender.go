package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/platform/worker"
)

const (
	sendAttempts   = 2
	sendRetryDelay = time.Second
)

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender sends and copies messages through the Bot API, retrying once when
// the request times out.
type Sender struct {
	api    botAPI
	retry  worker.RetryConfig
	logger *zerolog.Logger
}

func NewSender(api botAPI, logger *zerolog.Logger) *Sender {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Sender{
		api: api,
		retry: worker.RetryConfig{
			Attempts:    sendAttempts,
			Delay:       sendRetryDelay,
			ShouldRetry: isTimeout,
		},
		logger: logger,
	}
}

// SendText sends plain text without parse mode.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	if err := s.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send text to %d: %w", chatID, err)
	}

	return nil
}

// CopyMessage copies msgID from fromChatID into toChatID without a forward header.
func (s *Sender) CopyMessage(ctx context.Context, toChatID, fromChatID, msgID int64) error {
	cfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, int(msgID))

	err := worker.Retry(ctx, s.retry, func(context.Context) error {
		_, err := s.api.Request(cfg)
		return err
	})
	if err != nil {
		return fmt.Errorf("copy message %d from %d: %w", msgID, fromChatID, err)
	}

	return nil
}

func (s *Sender) send(ctx context.Context, c tgbotapi.Chattable) error {
	return worker.Retry(ctx, s.retry, func(context.Context) error {
		_, err := s.api.Send(c)
		if err != nil && isTimeout(err) {
			s.logger.Warn().Err(err).Msg("bot api request timed out")
		}

		return err
	})
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
