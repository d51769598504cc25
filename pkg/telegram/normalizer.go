package telegram

import (
	"fmt"
	"strings"
)

// NoContentSentinel marks a message that carried neither text nor caption.
// Downstream consumers branch on this value instead of probing for nil.
const NoContentSentinel = "[no content found]"

// MediaType classifies the primary media attachment of a message.
type MediaType string

const (
	MediaNone      MediaType = ""
	MediaAnimation MediaType = "animation"
	MediaVideo     MediaType = "video"
	MediaPhoto     MediaType = "photo"
	MediaDocument  MediaType = "document"
	MediaAudio     MediaType = "audio"
)

// Media is the resolved primary attachment of a message.
type Media struct {
	Type   MediaType
	FileID string
}

// NormalizedMessage is the canonical form of an inbound message: the main
// content plus a side channel of extraction metadata kept separate from the
// text payload.
type NormalizedMessage struct {
	Content       string
	Media         Media
	ForwardedFrom string
	// FormatEntities holds formatting entity spans serialized as
	// "type:start-end[:extra]" in source order.
	FormatEntities []string
}

// HasContent reports whether the message carried actual text or caption.
func (n NormalizedMessage) HasContent() bool {
	return n.Content != NoContentSentinel
}

// Metadata flattens the side-channel fields into the list form the metadata
// extraction prompt consumes.
func (n NormalizedMessage) Metadata() []string {
	var out []string
	if n.Media.Type != MediaNone {
		out = append(out, fmt.Sprintf("media:%s:%s", n.Media.Type, n.Media.FileID))
	}
	if n.ForwardedFrom != "" {
		out = append(out, "forwarded_from:"+n.ForwardedFrom)
	}
	out = append(out, n.FormatEntities...)
	return out
}

// Normalize extracts the canonical content and metadata from a raw message.
// It is a pure transform and never fails: a message with no usable content
// degrades to the sentinel so the pipeline never drops a message silently.
func Normalize(msg *Message) NormalizedMessage {
	if msg == nil {
		return NormalizedMessage{Content: NoContentSentinel}
	}

	out := NormalizedMessage{
		Content:        mainContent(msg),
		Media:          resolveMedia(msg),
		ForwardedFrom:  forwardedFrom(msg.ForwardOrigin),
		FormatEntities: serializeEntities(formatEntities(msg)),
	}

	return out
}

func mainContent(msg *Message) string {
	if strings.TrimSpace(msg.Text) != "" {
		return msg.Text
	}
	if strings.TrimSpace(msg.Caption) != "" {
		return msg.Caption
	}
	return NoContentSentinel
}

// resolveMedia picks the primary attachment. A single message may carry
// overlapping descriptors (an animation is also reported as a document), so
// the first match in priority order wins.
func resolveMedia(msg *Message) Media {
	switch {
	case msg.Animation != nil:
		return Media{Type: MediaAnimation, FileID: msg.Animation.FileID}
	case msg.Video != nil:
		return Media{Type: MediaVideo, FileID: msg.Video.FileID}
	case len(msg.Photo) > 0:
		return Media{Type: MediaPhoto, FileID: largestPhoto(msg.Photo).FileID}
	case msg.Document != nil:
		return Media{Type: MediaDocument, FileID: msg.Document.FileID}
	case msg.Audio != nil:
		return Media{Type: MediaAudio, FileID: msg.Audio.FileID}
	default:
		return Media{}
	}
}

func largestPhoto(sizes []PhotoSize) PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func forwardedFrom(origin *ForwardOrigin) string {
	if origin == nil {
		return ""
	}

	switch origin.Type {
	case "channel":
		if origin.Chat == nil {
			return ""
		}
		if origin.Chat.Username != "" {
			return "@" + origin.Chat.Username
		}
		return origin.Chat.Title
	case "user":
		if origin.SenderUser == nil {
			return ""
		}
		if origin.SenderUser.Username != "" {
			return "@" + origin.SenderUser.Username
		}
		return origin.SenderUser.FirstName
	default:
		return ""
	}
}

func formatEntities(msg *Message) []MessageEntity {
	if len(msg.Entities) > 0 {
		return msg.Entities
	}
	return msg.CaptionEntities
}

func serializeEntities(entities []MessageEntity) []string {
	if len(entities) == 0 {
		return nil
	}

	out := make([]string, 0, len(entities))
	for _, e := range entities {
		span := fmt.Sprintf("%s:%d-%d", e.Type, e.Offset, e.Offset+e.Length)
		switch {
		case e.URL != "":
			span += ":" + e.URL
		case e.CustomEmojiID != "":
			span += ":" + e.CustomEmojiID
		}
		out = append(out, span)
	}
	return out
}
