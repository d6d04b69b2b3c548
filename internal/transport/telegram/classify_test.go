package telegram

import (
	"testing"

	"github.com/mymmrac/telego"

	"github.com/bekzodm/dilbot/internal/transport"
)

func message(body func(m *telego.Message)) *telego.Message {
	m := &telego.Message{
		Chat: telego.Chat{ID: 100},
		From: &telego.User{ID: 7},
	}
	body(m)
	return m
}

// TestClassify covers the inbound message taxonomy.
func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		msg       *telego.Message
		wantOk    bool
		wantKind  transport.EventKind
		wantText  string
		wantCmd   string
		wantFile  string
	}{
		{
			name:     "plain text",
			msg:      message(func(m *telego.Message) { m.Text = "salom" }),
			wantOk:   true,
			wantKind: transport.KindText,
			wantText: "salom",
		},
		{
			name:     "command",
			msg:      message(func(m *telego.Message) { m.Text = "/abortSession" }),
			wantOk:   true,
			wantKind: transport.KindCommand,
			wantText: "/abortSession",
			wantCmd:  "/abortsession",
		},
		{
			name:     "command with bot suffix",
			msg:      message(func(m *telego.Message) { m.Text = "/reConnectSession@dilbot arg" }),
			wantOk:   true,
			wantKind: transport.KindCommand,
			wantCmd:  "/reconnectsession",
			wantText: "/reConnectSession@dilbot arg",
		},
		{
			name: "contact",
			msg: message(func(m *telego.Message) {
				m.Contact = &telego.Contact{PhoneNumber: "998901234567"}
			}),
			wantOk:   true,
			wantKind: transport.KindText,
			wantText: "[Kontakt raqami: +998901234567]",
		},
		{
			name: "location",
			msg: message(func(m *telego.Message) {
				m.Location = &telego.Location{Latitude: 39.6, Longitude: 66.9}
			}),
			wantOk:   true,
			wantKind: transport.KindLocation,
		},
		{
			name: "venue",
			msg: message(func(m *telego.Message) {
				m.Venue = &telego.Venue{Location: telego.Location{Latitude: 41.3, Longitude: 69.2}}
			}),
			wantOk:   true,
			wantKind: transport.KindLocation,
		},
		{
			name: "photo with caption",
			msg: message(func(m *telego.Message) {
				m.Photo = []telego.PhotoSize{
					{FileID: "small"},
					{FileID: "large"},
				}
				m.Caption = "narxi?"
			}),
			wantOk:   true,
			wantKind: transport.KindImage,
			wantText: "narxi?",
			wantFile: "large",
		},
		{
			name: "image sent as file",
			msg: message(func(m *telego.Message) {
				m.Document = &telego.Document{FileID: "doc1", MimeType: "image/png", FileName: "photo.png"}
			}),
			wantOk:   true,
			wantKind: transport.KindImage,
			wantFile: "doc1",
		},
		{
			name: "pdf document",
			msg: message(func(m *telego.Message) {
				m.Document = &telego.Document{FileID: "doc2", MimeType: "application/pdf", FileName: "price.pdf"}
			}),
			wantOk:   true,
			wantKind: transport.KindDocument,
			wantText: "price.pdf",
		},
		{
			name: "sticker greets",
			msg: message(func(m *telego.Message) {
				m.Sticker = &telego.Sticker{FileID: "st1"}
			}),
			wantOk:   true,
			wantKind: transport.KindGreeting,
		},
		{
			name: "gif greets despite document field",
			msg: message(func(m *telego.Message) {
				m.Animation = &telego.Animation{FileID: "an1"}
				m.Document = &telego.Document{FileID: "an1", MimeType: "video/mp4"}
			}),
			wantOk:   true,
			wantKind: transport.KindGreeting,
		},
		{
			name: "voice greets",
			msg: message(func(m *telego.Message) {
				m.Voice = &telego.Voice{FileID: "v1"}
			}),
			wantOk:   true,
			wantKind: transport.KindGreeting,
		},
		{
			name:   "no sender",
			msg:    &telego.Message{Chat: telego.Chat{ID: 100}},
			wantOk: false,
		},
		{
			name: "bot sender",
			msg: message(func(m *telego.Message) {
				m.From.IsBot = true
				m.Text = "salom"
			}),
			wantOk: false,
		},
		{
			name:   "empty service message",
			msg:    message(func(m *telego.Message) {}),
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := classify(tt.msg)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if in.ev.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", in.ev.Kind, tt.wantKind)
			}
			if tt.wantText != "" && in.ev.Text != tt.wantText {
				t.Errorf("text = %q, want %q", in.ev.Text, tt.wantText)
			}
			if tt.wantCmd != "" && in.ev.Command != tt.wantCmd {
				t.Errorf("command = %q, want %q", in.ev.Command, tt.wantCmd)
			}
			if in.imageFileID != tt.wantFile {
				t.Errorf("imageFileID = %q, want %q", in.imageFileID, tt.wantFile)
			}
			if in.ev.Peer.UserID != "7" || in.ev.Peer.ChatID != 100 {
				t.Errorf("peer = %+v", in.ev.Peer)
			}
		})
	}
}
