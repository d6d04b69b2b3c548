// Package transport defines the chat-network contract consumed by the
// dispatch core. The concrete Telegram implementation lives in the
// telegram subpackage; tests use in-memory fakes.
package transport

import "context"

// Peer addresses one conversation endpoint.
type Peer struct {
	ChatID int64
	UserID string
}

// TextMode selects the rich-text rendering of an outbound message.
type TextMode string

const (
	ModePlain TextMode = ""
	ModeHTML  TextMode = "HTML"
)

// HistoryMessage is one entry of the recent conversation, as stored by
// the transport. FromSelf marks messages authored by the bot.
type HistoryMessage struct {
	FromSelf bool
	Text     string
}

// Transport is the outbound side of the chat network.
type Transport interface {
	// RecentMessages returns up to limit recent messages for the peer,
	// newest first. Callers reverse to oldest-first for prompt building.
	RecentMessages(ctx context.Context, peer Peer, limit int) ([]HistoryMessage, error)

	// SendTyping emits a transient typing indicator.
	SendTyping(ctx context.Context, peer Peer) error

	// SendText delivers a text message.
	SendText(ctx context.Context, peer Peer, text string, mode TextMode) error

	// SendLocation delivers a native map attachment.
	SendLocation(ctx context.Context, peer Peer, lat, lon float64) error
}

// EventKind classifies an inbound chat event.
type EventKind string

const (
	KindText     EventKind = "text"
	KindImage    EventKind = "image"
	KindDocument EventKind = "document"
	KindLocation EventKind = "location"
	KindGreeting EventKind = "greeting"
	KindCommand  EventKind = "command"
)

// Event is one normalized inbound chat event. The transport downloads
// and decodes attachments before handing the event over, so the
// dispatch core never touches the wire protocol.
type Event struct {
	Kind EventKind
	Peer Peer

	// Text carries the message text, the image caption, or synthesized
	// input (contact lines), depending on Kind.
	Text string

	// Command is the verb for KindCommand events, lower-cased without
	// arguments (e.g. "/abortsession").
	Command string

	// Image holds decoded image bytes for KindImage events.
	Image []byte

	// Latitude/Longitude are set for KindLocation events.
	Latitude  float64
	Longitude float64
}

// Handler consumes normalized inbound events.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}
