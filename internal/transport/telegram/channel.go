// Package telegram implements the chat transport over the Telegram
// Bot API using long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"

	"github.com/bekzodm/dilbot/internal/config"
	"github.com/bekzodm/dilbot/internal/transport"
)

// Channel connects to Telegram via the Bot API using long polling.
// Updates are processed sequentially so attachment arrival order is
// preserved; concurrency starts behind the event handler.
type Channel struct {
	bot     *telego.Bot
	cfg     config.TelegramConfig
	handler transport.Handler
	history *historyBook
	limiter *rate.Limiter
	// httpc serves direct file downloads; shared with the bot so the
	// proxy setting covers both.
	httpc *http.Client
	log   *slog.Logger

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates the Telegram channel from config. The handler receives
// every normalized inbound event.
func New(cfg config.TelegramConfig, handler transport.Handler, log *slog.Logger) (*Channel, error) {
	var opts []telego.BotOption

	httpc := http.DefaultClient
	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		httpc = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}
		opts = append(opts, telego.WithHTTPClient(httpc))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Channel{
		bot:     bot,
		cfg:     cfg,
		handler: handler,
		history: newHistoryBook(),
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		httpc:   httpc,
		log:     log,
	}, nil
}

// Start begins long polling for updates.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("starting telegram bot (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	c.log.Info("telegram bot connected", "username", c.bot.Username())

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					c.log.Info("telegram updates channel closed")
					return
				}
				if update.Message == nil {
					continue
				}
				c.handleMessage(pollCtx, update.Message)
			}
		}
	}()

	return nil
}

// Stop cancels long polling and waits for the polling goroutine so
// Telegram releases the getUpdates lock before a new instance starts.
func (c *Channel) Stop(_ context.Context) error {
	c.log.Info("stopping telegram bot")

	if c.pollCancel != nil {
		c.pollCancel()
	}
	if c.pollDone != nil {
		select {
		case <-c.pollDone:
			c.log.Info("telegram bot stopped")
		case <-time.After(10 * time.Second):
			c.log.Warn("telegram polling goroutine did not exit within timeout")
		}
	}
	return nil
}

func (c *Channel) handleMessage(ctx context.Context, msg *telego.Message) {
	in, ok := classify(msg)
	if !ok {
		return
	}

	if in.imageFileID != "" {
		data, err := c.downloadFile(ctx, in.imageFileID)
		if err != nil {
			c.log.Warn("image download failed",
				"chat_id", in.ev.Peer.ChatID, "file_id", in.imageFileID, "error", err)
			return
		}
		if sanitized, err := sanitizeImage(data); err != nil {
			c.log.Warn("image sanitize failed, using original", "error", err)
			in.ev.Image = data
		} else {
			in.ev.Image = sanitized
		}
	}

	// Text goes into the ring before dispatch so prompt assembly sees
	// a consistent history that includes the current message.
	if in.ev.Kind == transport.KindText {
		c.history.Record(in.ev.Peer.ChatID, false, in.ev.Text)
	}

	c.log.Debug("inbound event",
		"kind", in.ev.Kind, "chat_id", in.ev.Peer.ChatID)
	c.handler.HandleEvent(ctx, in.ev)
}
