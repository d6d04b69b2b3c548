package telegram

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/bekzodm/dilbot/internal/transport"
)

// RecentMessages implements transport.Transport from the in-process
// ring; the Bot API cannot read chat history.
func (c *Channel) RecentMessages(_ context.Context, peer transport.Peer, limit int) ([]transport.HistoryMessage, error) {
	return c.history.Recent(peer.ChatID, limit), nil
}

// SendTyping implements transport.Transport. Not rate limited; chat
// actions are transient and cheap.
func (c *Channel) SendTyping(ctx context.Context, peer transport.Peer) error {
	return c.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(peer.ChatID), telego.ChatActionTyping))
}

// SendText implements transport.Transport. HTML replies that Telegram
// rejects as unparseable are resent as plain text so a malformed model
// tag never swallows the answer.
func (c *Channel) SendText(ctx context.Context, peer transport.Peer, text string, mode transport.TextMode) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tu.Message(tu.ID(peer.ChatID), text)
	if mode == transport.ModeHTML {
		msg.ParseMode = telego.ModeHTML
	}

	_, err := c.bot.SendMessage(ctx, msg)
	if err != nil && mode == transport.ModeHTML && strings.Contains(err.Error(), "can't parse entities") {
		c.log.Warn("html reply rejected, resending as plain text",
			"chat_id", peer.ChatID, "error", err)
		msg.ParseMode = ""
		_, err = c.bot.SendMessage(ctx, msg)
	}
	if err != nil {
		return err
	}

	c.history.Record(peer.ChatID, true, text)
	return nil
}

// SendLocation implements transport.Transport.
func (c *Channel) SendLocation(ctx context.Context, peer transport.Peer, lat, lon float64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.SendLocation(ctx, &telego.SendLocationParams{
		ChatID:    tu.ID(peer.ChatID),
		Latitude:  lat,
		Longitude: lon,
	})
	return err
}
