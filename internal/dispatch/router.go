package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bekzodm/dilbot/internal/store"
	"github.com/bekzodm/dilbot/internal/transport"
)

// GreetingReplyInput is what the model sees when a user opens with a
// sticker, GIF, or other media the vision pipeline does not cover.
const GreetingReplyInput = "Salom"

// Router classifies inbound events and drives the pipeline. It owns
// the per-chat pause set: /abortsession silences a chat until
// /reconnectsession, so a human operator can take over a conversation.
type Router struct {
	base     context.Context
	pipeline *Pipeline
	sessions *ImageSessions
	registry *Registry
	blocks   store.BlockStore
	log      *slog.Logger

	mu     sync.Mutex
	paused map[string]struct{}
}

func NewRouter(base context.Context, pipeline *Pipeline, sessions *ImageSessions, registry *Registry, blocks store.BlockStore, log *slog.Logger) *Router {
	return &Router{
		base:     base,
		pipeline: pipeline,
		sessions: sessions,
		registry: registry,
		blocks:   blocks,
		log:      log,
		paused:   make(map[string]struct{}),
	}
}

// HandleEvent implements transport.Handler. It runs in the transport's
// sequential update order; model turns are spawned so one user's slow
// turn never delays another's.
func (r *Router) HandleEvent(ctx context.Context, ev transport.Event) {
	blocked, err := r.blocks.IsBlocked(ctx, ev.Peer.UserID)
	if err != nil {
		// Fail open: a broken block store must not silence the bot.
		r.log.Warn("block check failed", "user_id", ev.Peer.UserID, "error", err)
	} else if blocked {
		r.log.Debug("dropping event from blocked user", "user_id", ev.Peer.UserID)
		return
	}

	if ev.Kind == transport.KindCommand {
		r.handleCommand(ev)
		return
	}
	if r.isPaused(ev.Peer.UserID) {
		return
	}

	switch ev.Kind {
	case transport.KindImage:
		r.sessions.Add(ev.Peer, ev.Image, ev.Text)

	case transport.KindDocument:
		// Documents are answered by code, never by the model.
		cfg := r.pipeline.Conf()
		if err := r.pipeline.Transport.SendText(ctx, ev.Peer, cfg.Pipeline.DocumentReply, transport.ModeHTML); err != nil {
			r.log.Error("document reply failed", "chat_id", ev.Peer.ChatID, "error", err)
		}

	case transport.KindText:
		r.startTurn(ev.Peer, ev.Text, ev.Text)

	case transport.KindGreeting:
		r.startTurn(ev.Peer, GreetingReplyInput, "")

	case transport.KindLocation:
		input := fmt.Sprintf("[Mijoz lokatsiya yubordi: %.6f, %.6f]", ev.Latitude, ev.Longitude)
		r.startTurn(ev.Peer, input, "")

	default:
		r.log.Debug("unhandled event kind", "kind", ev.Kind)
	}
}

// startTurn registers the call synchronously, so supersede order
// matches message arrival order, then runs the turn concurrently.
func (r *Router) startTurn(peer transport.Peer, input, recorded string) {
	call := r.registry.Supersede(r.base, peer.UserID)
	go r.pipeline.RunText(call, peer, input, recorded)
}

func (r *Router) handleCommand(ev transport.Event) {
	switch ev.Command {
	case "/abortsession":
		r.mu.Lock()
		r.paused[ev.Peer.UserID] = struct{}{}
		r.mu.Unlock()
		r.registry.Cancel(ev.Peer.UserID)
		r.sessions.Abort(ev.Peer.UserID)
		r.log.Info("session paused", "chat_id", ev.Peer.ChatID)

	case "/reconnectsession":
		r.mu.Lock()
		delete(r.paused, ev.Peer.UserID)
		r.mu.Unlock()
		r.log.Info("session resumed", "chat_id", ev.Peer.ChatID)

	default:
		r.log.Debug("unknown command", "command", ev.Command)
	}
}

func (r *Router) isPaused(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.paused[userID]
	return ok
}
