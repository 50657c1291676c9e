package telegramreader

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

// ForwardToRelay forwards ids from source into the relay chat and returns the
// relay message ids in the same order.
func (r *Reader) ForwardToRelay(ctx context.Context, source domain.ChatRef, ids []int64) ([]int64, error) {
	if r.cfg.RelayChatID == 0 {
		return nil, apperrors.ErrRelayUnavailable
	}

	if len(ids) == 0 {
		return nil, nil
	}

	client, err := r.client()
	if err != nil {
		return nil, err
	}

	relayPeer, err := r.resolvePeer(ctx, client, domain.ChatRef{ID: r.cfg.RelayChatID})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRelayUnavailable, err)
	}

	fromPeer, err := r.resolvePeer(ctx, client, source)
	if err != nil {
		return nil, err
	}

	req := &tg.MessagesForwardMessagesRequest{
		FromPeer: fromPeer,
		ToPeer:   relayPeer,
		ID:       make([]int, len(ids)),
		RandomID: make([]int64, len(ids)),
	}

	position := make(map[int64]int, len(ids))

	for i, id := range ids {
		req.ID[i] = int(id)
		req.RandomID[i] = rand.Int64()
		position[req.RandomID[i]] = i
	}

	var updates tg.UpdatesClass

	err = r.withFloodWait(ctx, func() error {
		var callErr error
		updates, callErr = client.MessagesForwardMessages(ctx, req)

		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("forward to relay: %w", err)
	}

	relayed, err := relayIDs(updates, position, len(ids))
	if err != nil {
		return nil, err
	}

	r.logger.Debug().Ints64("ids", ids).Ints64("relay_ids", relayed).Str(logKeyChat, source.String()).Msg("forwarded to relay")

	return relayed, nil
}

// relayIDs maps UpdateMessageID entries back to request positions by random id.
func relayIDs(updates tg.UpdatesClass, position map[int64]int, n int) ([]int64, error) {
	var list []tg.UpdateClass

	switch u := updates.(type) {
	case *tg.Updates:
		list = u.Updates
	case *tg.UpdatesCombined:
		list = u.Updates
	default:
		return nil, fmt.Errorf("%w: %T", apperrors.ErrUnexpectedType, updates)
	}

	out := make([]int64, n)
	found := 0

	for _, upd := range list {
		msgID, ok := upd.(*tg.UpdateMessageID)
		if !ok {
			continue
		}

		if i, ok := position[msgID.RandomID]; ok && out[i] == 0 {
			out[i] = int64(msgID.ID)
			found++
		}
	}

	if found != n {
		return nil, fmt.Errorf("%w: %d of %d", apperrors.ErrRelayMismatch, found, n)
	}

	return out, nil
}
