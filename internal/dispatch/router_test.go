package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bekzodm/dilbot/internal/config"
	"github.com/bekzodm/dilbot/internal/providers"
	"github.com/bekzodm/dilbot/internal/store"
	"github.com/bekzodm/dilbot/internal/transport"
)

// failingBlocks always errors, for the fail-open path.
type failingBlocks struct{}

func (failingBlocks) IsBlocked(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}
func (failingBlocks) Block(context.Context, string, time.Time) error { return nil }
func (failingBlocks) Unblock(context.Context, string) error          { return nil }
func (failingBlocks) Close() error                                   { return nil }

func newTestRouter(t *testing.T, text Inference, blocks store.BlockStore) (*Router, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	reg := NewRegistry()
	cfg := testConfig(t)
	cfg.Pipeline.DebounceSeconds = 1
	p := &Pipeline{
		Transport: tr,
		Text:      text,
		Vision:    reply("tavsif"),
		Registry:  reg,
		Conf:      func() *config.Config { return cfg },
		Log:       slog.New(slog.DiscardHandler),
	}
	log := slog.New(slog.DiscardHandler)
	sessions := NewImageSessions(context.Background(), p, reg, log)
	return NewRouter(context.Background(), p, sessions, reg, blocks, log), tr
}

func waitForTexts(t *testing.T, tr *fakeTransport, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if texts := tr.sentTexts(); len(texts) >= n {
			return texts
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d outbound texts, have %q", n, tr.sentTexts())
	return nil
}

// TestRouterTextTurn verifies a plain text event produces a model
// reply.
func TestRouterTextTurn(t *testing.T) {
	r, tr := newTestRouter(t, reply("javob"), store.NewMemoryStore())

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindText, Peer: testPeer, Text: "salom",
	})

	texts := waitForTexts(t, tr, 1)
	if texts[0] != "javob" {
		t.Errorf("reply = %q, want model output", texts[0])
	}
}

// TestRouterBlockedDrop verifies events from blocked users are dropped
// with no reply.
func TestRouterBlockedDrop(t *testing.T) {
	blocks := store.NewMemoryStore()
	if err := blocks.Block(context.Background(), testPeer.UserID, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	r, tr := newTestRouter(t, reply("javob"), blocks)

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindText, Peer: testPeer, Text: "salom",
	})

	time.Sleep(100 * time.Millisecond)
	if texts := tr.sentTexts(); len(texts) != 0 {
		t.Errorf("blocked user got reply %q", texts)
	}
}

// TestRouterBlockCheckFailsOpen verifies a broken block store does not
// silence the bot.
func TestRouterBlockCheckFailsOpen(t *testing.T) {
	r, tr := newTestRouter(t, reply("javob"), failingBlocks{})

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindText, Peer: testPeer, Text: "salom",
	})

	waitForTexts(t, tr, 1)
}

// TestRouterDocumentReply verifies documents get the fixed
// acknowledgement without touching the model.
func TestRouterDocumentReply(t *testing.T) {
	called := false
	text := inferenceFunc(func(context.Context, providers.ChatRequest) (*providers.ChatResponse, error) {
		called = true
		return &providers.ChatResponse{Content: "no"}, nil
	})
	r, tr := newTestRouter(t, text, store.NewMemoryStore())

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindDocument, Peer: testPeer, Text: "price.pdf",
	})

	texts := waitForTexts(t, tr, 1)
	if texts[0] != r.pipeline.Conf().Pipeline.DocumentReply {
		t.Errorf("document reply = %q, want the fixed line", texts[0])
	}
	if called {
		t.Error("document event reached the model")
	}
}

// TestRouterGreetingTurn verifies greeting media is answered through
// the text path with the synthesized greeting input.
func TestRouterGreetingTurn(t *testing.T) {
	var input string
	text := inferenceFunc(func(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
		input = req.Messages[len(req.Messages)-1].Content
		return &providers.ChatResponse{Content: "Salom!"}, nil
	})
	r, tr := newTestRouter(t, text, store.NewMemoryStore())

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindGreeting, Peer: testPeer,
	})

	waitForTexts(t, tr, 1)
	if input != GreetingReplyInput {
		t.Errorf("model input = %q, want %q", input, GreetingReplyInput)
	}
}

// TestRouterLocationTurn verifies an inbound location is synthesized
// into model input.
func TestRouterLocationTurn(t *testing.T) {
	var input string
	text := inferenceFunc(func(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
		input = req.Messages[len(req.Messages)-1].Content
		return &providers.ChatResponse{Content: "Yaqin ekansiz."}, nil
	})
	r, tr := newTestRouter(t, text, store.NewMemoryStore())

	r.HandleEvent(context.Background(), transport.Event{
		Kind: transport.KindLocation, Peer: testPeer,
		Latitude: 39.666818, Longitude: 66.934545,
	})

	waitForTexts(t, tr, 1)
	if !strings.Contains(input, "39.666818, 66.934545") {
		t.Errorf("model input = %q, want embedded coordinates", input)
	}
}

// TestRouterPauseResume verifies /abortsession silences a chat and
// /reconnectsession restores it.
func TestRouterPauseResume(t *testing.T) {
	r, tr := newTestRouter(t, reply("javob"), store.NewMemoryStore())
	ctx := context.Background()

	r.HandleEvent(ctx, transport.Event{
		Kind: transport.KindCommand, Peer: testPeer, Command: "/abortsession",
	})
	r.HandleEvent(ctx, transport.Event{
		Kind: transport.KindText, Peer: testPeer, Text: "salom",
	})
	time.Sleep(100 * time.Millisecond)
	if texts := tr.sentTexts(); len(texts) != 0 {
		t.Fatalf("paused chat got reply %q", texts)
	}

	r.HandleEvent(ctx, transport.Event{
		Kind: transport.KindCommand, Peer: testPeer, Command: "/reconnectsession",
	})
	r.HandleEvent(ctx, transport.Event{
		Kind: transport.KindText, Peer: testPeer, Text: "salom",
	})
	waitForTexts(t, tr, 1)
}

// TestRouterAbortCancelsWork verifies /abortsession aborts both the
// in-flight call and any buffered image batch.
func TestRouterAbortCancelsWork(t *testing.T) {
	r, tr := newTestRouter(t, reply("javob"), store.NewMemoryStore())
	ctx := context.Background()

	r.sessions.Add(testPeer, []byte("img"), "")
	call := r.registry.Supersede(context.Background(), testPeer.UserID)

	r.HandleEvent(ctx, transport.Event{
		Kind: transport.KindCommand, Peer: testPeer, Command: "/abortsession",
	})

	if call.Ctx.Err() == nil {
		t.Error("in-flight call survived /abortsession")
	}
	time.Sleep(1500 * time.Millisecond)
	if texts := tr.sentTexts(); len(texts) != 0 {
		t.Errorf("aborted image batch still replied %q", texts)
	}
}
