package telegram

import (
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/bekzodm/dilbot/internal/transport"
)

// visionImageMIMEs are the document MIME types accepted into the
// vision pipeline when a photo is sent as a file. Stickers stay out
// even though Telegram serves them as image/webp.
var visionImageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// inbound is a classified message: the normalized event plus the
// file_id to download when the event carries an image.
type inbound struct {
	ev          transport.Event
	imageFileID string
}

// classify maps a raw Telegram message onto the transport event model.
// Returns ok=false for messages the bot ignores (no sender, empty
// service messages).
func classify(msg *telego.Message) (inbound, bool) {
	if msg.From == nil || msg.From.IsBot {
		return inbound{}, false
	}

	peer := transport.Peer{
		ChatID: msg.Chat.ID,
		UserID: strconv.FormatInt(msg.From.ID, 10),
	}

	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/"):
		verb := strings.ToLower(strings.Fields(text)[0])
		// Strip the @botname suffix Telegram appends in groups.
		if i := strings.IndexByte(verb, '@'); i > 0 {
			verb = verb[:i]
		}
		return inbound{ev: transport.Event{
			Kind: transport.KindCommand, Peer: peer, Text: text, Command: verb,
		}}, true

	case msg.Contact != nil:
		number := msg.Contact.PhoneNumber
		if !strings.HasPrefix(number, "+") {
			number = "+" + number
		}
		return inbound{ev: transport.Event{
			Kind: transport.KindText, Peer: peer,
			Text: "[Kontakt raqami: " + number + "]",
		}}, true

	case msg.Location != nil:
		return inbound{ev: transport.Event{
			Kind: transport.KindLocation, Peer: peer,
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}}, true

	case msg.Venue != nil:
		return inbound{ev: transport.Event{
			Kind: transport.KindLocation, Peer: peer,
			Latitude:  msg.Venue.Location.Latitude,
			Longitude: msg.Venue.Location.Longitude,
		}}, true

	case msg.Sticker != nil, msg.Animation != nil, msg.Video != nil,
		msg.VideoNote != nil, msg.Voice != nil, msg.Audio != nil:
		// Telegram sets Document alongside Animation for GIFs, so the
		// greeting media check must run before the document ones.
		return inbound{ev: transport.Event{
			Kind: transport.KindGreeting, Peer: peer,
		}}, true

	case len(msg.Photo) > 0:
		// Highest resolution is the last element.
		photo := msg.Photo[len(msg.Photo)-1]
		return inbound{
			ev: transport.Event{
				Kind: transport.KindImage, Peer: peer,
				Text: strings.TrimSpace(msg.Caption),
			},
			imageFileID: photo.FileID,
		}, true

	case msg.Document != nil && visionImageMIMEs[msg.Document.MimeType]:
		// An image sent as a file keeps full resolution; treat it the
		// same as a photo.
		return inbound{
			ev: transport.Event{
				Kind: transport.KindImage, Peer: peer,
				Text: strings.TrimSpace(msg.Caption),
			},
			imageFileID: msg.Document.FileID,
		}, true

	case msg.Document != nil:
		return inbound{ev: transport.Event{
			Kind: transport.KindDocument, Peer: peer,
			Text: msg.Document.FileName,
		}}, true

	case text != "":
		return inbound{ev: transport.Event{
			Kind: transport.KindText, Peer: peer, Text: text,
		}}, true
	}

	return inbound{}, false
}
