package telegramreader

import (
	"strings"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

// convertMessages turns a history page into fragments, skipping service and
// empty messages. users and chats come from the same response.
func convertMessages(messages []tg.MessageClass, users []tg.UserClass, chats []tg.ChatClass) []domain.Fragment {
	userByID := make(map[int64]*tg.User, len(users))

	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			userByID[user.ID] = user
		}
	}

	channelByID := make(map[int64]*tg.Channel, len(chats))

	for _, c := range chats {
		if channel, ok := c.(*tg.Channel); ok {
			channelByID[channel.ID] = channel
		}
	}

	out := make([]domain.Fragment, 0, len(messages))

	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		out = append(out, convertMessage(msg, userByID, channelByID))
	}

	return out
}

func convertMessage(msg *tg.Message, users map[int64]*tg.User, channels map[int64]*tg.Channel) domain.Fragment {
	hasMedia := hasMedia(msg.Media)

	f := domain.Fragment{
		RawFragment: domain.RawFragment{
			ID:       int64(msg.ID),
			Text:     msg.Message,
			HasMedia: hasMedia,
		},
		Meta: domain.FragmentMeta{
			HasMedia:   hasMedia,
			ViaBot:     msg.ViaBotID != 0,
			ButtonURLs: buttonURLs(msg.ReplyMarkup),
		},
	}

	if groupID, ok := msg.GetGroupedID(); ok {
		f.GroupID = groupID
	}

	sender := msg.FromID
	if sender == nil {
		// Channel posts carry no sender; the channel itself is the author.
		sender = msg.PeerID
	}

	switch p := sender.(type) {
	case *tg.PeerUser:
		if u, ok := users[p.UserID]; ok {
			f.Meta.SenderUsername = u.Username
			f.Meta.SenderIsBot = u.Bot
		}
	case *tg.PeerChannel:
		if c, ok := channels[p.ChannelID]; ok {
			f.Meta.SenderUsername = c.Username
		}
	}

	return f
}

func hasMedia(media tg.MessageMediaClass) bool {
	if media == nil {
		return false
	}

	_, empty := media.(*tg.MessageMediaEmpty)

	return !empty
}

func buttonURLs(markup tg.ReplyMarkupClass) []string {
	inline, ok := markup.(*tg.ReplyInlineMarkup)
	if !ok {
		return nil
	}

	var urls []string

	for _, row := range inline.Rows {
		for _, b := range row.Buttons {
			if btn, ok := b.(*tg.KeyboardButtonURL); ok && strings.TrimSpace(btn.URL) != "" {
				urls = append(urls, btn.URL)
			}
		}
	}

	return urls
}
