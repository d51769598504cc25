package telegram

import (
	"encoding/json"
	"fmt"
)

// Message is the inbound Telegram message payload as delivered by the
// messaging collaborator. Only the fields the normalizer consumes are
// modeled; unknown fields are ignored on decode.
type Message struct {
	MessageID       int64           `json:"message_id"`
	Date            int64           `json:"date,omitempty"`
	Chat            *Chat           `json:"chat,omitempty"`
	Text            string          `json:"text,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	ForwardOrigin   *ForwardOrigin  `json:"forward_origin,omitempty"`
	Animation       *MediaFile      `json:"animation,omitempty"`
	Video           *MediaFile      `json:"video,omitempty"`
	Photo           []PhotoSize     `json:"photo,omitempty"`
	Document        *MediaFile      `json:"document,omitempty"`
	Audio           *MediaFile      `json:"audio,omitempty"`
}

// Chat identifies the channel or chat a message belongs to.
type Chat struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"`
}

// User identifies the sender of a forwarded message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// MessageEntity is a formatting entity span inside text or caption.
type MessageEntity struct {
	Type          string `json:"type"`
	Offset        int    `json:"offset"`
	Length        int    `json:"length"`
	URL           string `json:"url,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// ForwardOrigin describes where a forwarded message came from.
type ForwardOrigin struct {
	Type       string `json:"type"`
	Chat       *Chat  `json:"chat,omitempty"`
	SenderUser *User  `json:"sender_user,omitempty"`
}

// MediaFile is a generic media descriptor (animation, video, document, audio).
type MediaFile struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileName     string `json:"file_name,omitempty"`
}

// PhotoSize is one resolution variant of a photo.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ParseMessage decodes a raw inbound payload.
func ParseMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return &msg, nil
}
