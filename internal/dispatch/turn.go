package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bekzodm/dilbot/internal/config"
	"github.com/bekzodm/dilbot/internal/providers"
	"github.com/bekzodm/dilbot/internal/transport"
)

var tracer = otel.Tracer("github.com/bekzodm/dilbot/internal/dispatch")

// Inference is the piece of the provider client the pipeline needs.
// Satisfied by providers.RetryingClient.
type Inference interface {
	Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error)
}

// Pipeline runs one user turn end to end: prompt assembly, model
// call(s), and reply delivery. Every run happens under a Call context
// from the Registry, so a newer message from the same user aborts it
// at the next cancellation point.
type Pipeline struct {
	Transport transport.Transport
	Text      Inference
	Vision    Inference
	Registry  *Registry
	Conf      func() *config.Config
	Log       *slog.Logger
}

// RunText executes a single-stage text turn under call. recorded is the
// inbound text as the transport stored it, used to avoid duplicating
// the current message in the prompt history; input is the (possibly
// augmented) model input.
func (p *Pipeline) RunText(call *Call, peer transport.Peer, input, recorded string) {
	defer p.Registry.Release(peer.UserID, call)

	log := p.Log.With("turn_id", uuid.NewString(), "chat_id", peer.ChatID)
	log.Debug("text turn started")

	cfg := p.Conf()
	stopTyping := startTyping(call.Ctx, p.Transport, peer, cfg.Pipeline.TypingInterval())
	defer stopTyping()

	p.runTextStage(call.Ctx, log, peer, input, recorded, cfg, stopTyping)
}

// RunImageBatch executes the two-stage vision turn under call: one
// vision call describing all images, then a text turn whose input
// embeds the description. An empty vision description halts the turn
// without any reply.
func (p *Pipeline) RunImageBatch(call *Call, peer transport.Peer, images [][]byte, captions []string) {
	defer p.Registry.Release(peer.UserID, call)

	log := p.Log.With("turn_id", uuid.NewString(), "chat_id", peer.ChatID)
	log.Debug("image turn started", "images", len(images))

	cfg := p.Conf()
	stopTyping := startTyping(call.Ctx, p.Transport, peer, cfg.Pipeline.TypingInterval())
	defer stopTyping()

	desc, ok := p.runVisionStage(call.Ctx, log, peer, images, captions, cfg, stopTyping)
	if !ok {
		return
	}

	joined := strings.TrimSpace(strings.Join(nonEmpty(captions), " "))
	input := fmt.Sprintf("[Client rasmli murojaat qildi. Rasmlar tavsifi: %s] %s", desc, joined)
	p.runTextStage(call.Ctx, log, peer, strings.TrimSpace(input), "", cfg, stopTyping)
}

// runVisionStage sends all batched images in one vision-model call and
// returns the description. ok is false when the turn must stop: the
// call was superseded, the model failed after retries, or it returned
// nothing to describe.
func (p *Pipeline) runVisionStage(ctx context.Context, log *slog.Logger, peer transport.Peer, images [][]byte, captions []string, cfg *config.Config, stopTyping func()) (string, bool) {
	ctx, span := tracer.Start(ctx, "vision_stage", trace.WithAttributes(
		attribute.String("model", cfg.Models.VisionModel),
		attribute.Int("images", len(images)),
	))
	defer span.End()

	prompt := cfg.Pipeline.VisionPrompt
	for i, c := range captions {
		if c == "" {
			continue
		}
		prompt += fmt.Sprintf(" (Rasm %d izohi: %s)", i+1, c)
	}

	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	resp, err := p.Vision.Chat(ctx, providers.ChatRequest{
		Model: cfg.Models.VisionModel,
		Messages: []providers.Message{
			{Role: "user", Content: prompt, Images: encoded},
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if providers.IsCancelled(err) {
			return "", false
		}
		log.Error("vision stage failed", "error", err)
		p.deliverApology(ctx, log, peer, cfg, stopTyping)
		return "", false
	}

	desc := strings.TrimSpace(resp.Content)
	if desc == "" {
		log.Warn("vision model returned empty description")
		return "", false
	}
	return desc, true
}

// runTextStage runs the text model over the recent history plus input
// and delivers the reply. stopTyping is called right before delivery
// so the indicator never overlaps the answer.
func (p *Pipeline) runTextStage(ctx context.Context, log *slog.Logger, peer transport.Peer, input, recorded string, cfg *config.Config, stopTyping func()) {
	ctx, span := tracer.Start(ctx, "text_stage", trace.WithAttributes(
		attribute.String("model", cfg.Models.TextModel),
	))
	defer span.End()

	msgs := p.buildMessages(ctx, log, peer, input, recorded, cfg)

	resp, err := p.Text.Chat(ctx, providers.ChatRequest{
		Model:    cfg.Models.TextModel,
		Messages: msgs,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if providers.IsCancelled(err) {
			return
		}
		log.Error("text stage failed", "error", err)
		p.deliverApology(ctx, log, peer, cfg, stopTyping)
		return
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		log.Warn("text model returned empty reply")
		reply = cfg.Pipeline.ApologyText
	}

	// A message that arrived during the model call superseded this
	// turn; its answer must not reach the user.
	if ctx.Err() != nil {
		return
	}

	stopTyping()
	if err := p.Transport.SendText(ctx, peer, reply, transport.ModeHTML); err != nil {
		log.Error("reply delivery failed", "error", err)
		return
	}

	if lat, lon, ok := ExtractCoordinates(reply, GeoBounds(cfg.Geo)); ok && ctx.Err() == nil {
		log.Info("reply coordinates promoted to location", "lat", lat, "lon", lon)
		if err := p.Transport.SendLocation(ctx, peer, lat, lon); err != nil {
			log.Error("location delivery failed", "error", err)
		}
	}
}

// buildMessages assembles the model conversation: system prompt, the
// stored history oldest first, then the current input. The transport
// records inbound text before dispatch, so the newest history entry
// matching recorded is replaced by input rather than duplicated.
func (p *Pipeline) buildMessages(ctx context.Context, log *slog.Logger, peer transport.Peer, input, recorded string, cfg *config.Config) []providers.Message {
	msgs := []providers.Message{{Role: "system", Content: cfg.Pipeline.SystemPrompt}}

	hist, err := p.Transport.RecentMessages(ctx, peer, cfg.Pipeline.HistoryLimit)
	if err != nil {
		log.Warn("history fetch failed, continuing without", "error", err)
		hist = nil
	}

	// Newest first from the transport; oldest first for the model.
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}
	if n := len(hist); n > 0 && recorded != "" &&
		!hist[n-1].FromSelf && hist[n-1].Text == recorded {
		hist = hist[:n-1]
	}

	for _, h := range hist {
		role := "user"
		if h.FromSelf {
			role = "assistant"
		}
		msgs = append(msgs, providers.Message{Role: role, Content: h.Text})
	}
	return append(msgs, providers.Message{Role: "user", Content: input})
}

// deliverApology sends the configured apology line. Typing is stopped
// first so the indicator never overlaps the apology, mirroring the
// success path in runTextStage.
func (p *Pipeline) deliverApology(ctx context.Context, log *slog.Logger, peer transport.Peer, cfg *config.Config, stopTyping func()) {
	if ctx.Err() != nil {
		return
	}
	stopTyping()
	if err := p.Transport.SendText(ctx, peer, cfg.Pipeline.ApologyText, transport.ModeHTML); err != nil {
		log.Error("apology delivery failed", "error", err)
	}
}

func nonEmpty(ss []string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
