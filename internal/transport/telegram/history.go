package telegram

import (
	"sync"

	"github.com/bekzodm/dilbot/internal/transport"
)

// historyCap bounds how many messages are retained per chat. The
// prompt builder asks for far fewer; the headroom absorbs bursts.
const historyCap = 50

// historyBook keeps a per-chat ring of recent text messages. The Bot
// API offers no way to read a chat's history, so the transport records
// what it sees: inbound text and its own outbound replies.
type historyBook struct {
	mu    sync.Mutex
	chats map[int64][]transport.HistoryMessage // oldest first
}

func newHistoryBook() *historyBook {
	return &historyBook{chats: make(map[int64][]transport.HistoryMessage)}
}

func (h *historyBook) Record(chatID int64, fromSelf bool, text string) {
	if text == "" {
		return
	}
	h.mu.Lock()
	msgs := append(h.chats[chatID], transport.HistoryMessage{FromSelf: fromSelf, Text: text})
	if len(msgs) > historyCap {
		msgs = msgs[len(msgs)-historyCap:]
	}
	h.chats[chatID] = msgs
	h.mu.Unlock()
}

// Recent returns up to limit messages for the chat, newest first.
func (h *historyBook) Recent(chatID int64, limit int) []transport.HistoryMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.chats[chatID]
	if limit > len(msgs) {
		limit = len(msgs)
	}
	out := make([]transport.HistoryMessage, 0, limit)
	for i := len(msgs) - 1; i >= len(msgs)-limit; i-- {
		out = append(out, msgs[i])
	}
	return out
}
