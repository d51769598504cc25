package telegram

import (
	"reflect"
	"testing"
)

func TestNormalize_MainContent(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		content string
	}{
		{
			name:    "text wins over caption",
			msg:     &Message{MessageID: 1, Text: "hello", Caption: "ignored"},
			content: "hello",
		},
		{
			name:    "caption fallback",
			msg:     &Message{MessageID: 2, Caption: "caption only"},
			content: "caption only",
		},
		{
			name:    "no content degrades to sentinel",
			msg:     &Message{MessageID: 3},
			content: NoContentSentinel,
		},
		{
			name:    "nil message degrades to sentinel",
			msg:     nil,
			content: NoContentSentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.msg)
			if out.Content != tt.content {
				t.Errorf("Normalize() content = %q, want %q", out.Content, tt.content)
			}
		})
	}
}

func TestNormalize_MediaPriority(t *testing.T) {
	tests := []struct {
		name     string
		msg      *Message
		mediaTyp MediaType
		fileID   string
	}{
		{
			name: "animation wins over document for the same file",
			msg: &Message{
				MessageID: 1,
				Animation: &MediaFile{FileID: "anim-1"},
				Document:  &MediaFile{FileID: "anim-1"},
			},
			mediaTyp: MediaAnimation,
			fileID:   "anim-1",
		},
		{
			name: "video wins over photo",
			msg: &Message{
				MessageID: 2,
				Video:     &MediaFile{FileID: "vid-1"},
				Photo:     []PhotoSize{{FileID: "pho-1", Width: 100, Height: 100}},
			},
			mediaTyp: MediaVideo,
			fileID:   "vid-1",
		},
		{
			name: "largest photo variant is picked",
			msg: &Message{
				MessageID: 3,
				Photo: []PhotoSize{
					{FileID: "small", Width: 90, Height: 90},
					{FileID: "large", Width: 1280, Height: 720},
					{FileID: "medium", Width: 320, Height: 240},
				},
			},
			mediaTyp: MediaPhoto,
			fileID:   "large",
		},
		{
			name:     "no media",
			msg:      &Message{MessageID: 4, Text: "plain"},
			mediaTyp: MediaNone,
			fileID:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.msg)
			if out.Media.Type != tt.mediaTyp {
				t.Errorf("media type = %q, want %q", out.Media.Type, tt.mediaTyp)
			}
			if out.Media.FileID != tt.fileID {
				t.Errorf("media file id = %q, want %q", out.Media.FileID, tt.fileID)
			}
		})
	}
}

func TestNormalize_ForwardProvenance(t *testing.T) {
	tests := []struct {
		name   string
		origin *ForwardOrigin
		want   string
	}{
		{
			name:   "channel with username",
			origin: &ForwardOrigin{Type: "channel", Chat: &Chat{Username: "technews", Title: "Tech News"}},
			want:   "@technews",
		},
		{
			name:   "channel without username falls back to title",
			origin: &ForwardOrigin{Type: "channel", Chat: &Chat{Title: "Tech News"}},
			want:   "Tech News",
		},
		{
			name:   "user with username",
			origin: &ForwardOrigin{Type: "user", SenderUser: &User{Username: "alice", FirstName: "Alice"}},
			want:   "@alice",
		},
		{
			name:   "user without username falls back to first name",
			origin: &ForwardOrigin{Type: "user", SenderUser: &User{FirstName: "Alice"}},
			want:   "Alice",
		},
		{
			name:   "no forward metadata leaves the field unset",
			origin: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(&Message{MessageID: 1, Text: "x", ForwardOrigin: tt.origin})
			if out.ForwardedFrom != tt.want {
				t.Errorf("forwardedFrom = %q, want %q", out.ForwardedFrom, tt.want)
			}
		})
	}
}

func TestNormalize_EntitySerialization(t *testing.T) {
	msg := &Message{
		MessageID: 1,
		Text:      "check this out",
		Entities: []MessageEntity{
			{Type: "bold", Offset: 0, Length: 5},
			{Type: "text_link", Offset: 6, Length: 4, URL: "https://example.com"},
			{Type: "custom_emoji", Offset: 11, Length: 2, CustomEmojiID: "5368324170671202286"},
		},
	}

	want := []string{
		"bold:0-5",
		"text_link:6-10:https://example.com",
		"custom_emoji:11-13:5368324170671202286",
	}

	out := Normalize(msg)
	if !reflect.DeepEqual(out.FormatEntities, want) {
		t.Errorf("format entities = %v, want %v", out.FormatEntities, want)
	}
}

func TestNormalize_CaptionEntitiesFallback(t *testing.T) {
	msg := &Message{
		MessageID:       1,
		Caption:         "photo caption",
		CaptionEntities: []MessageEntity{{Type: "hashtag", Offset: 0, Length: 5}},
		Photo:           []PhotoSize{{FileID: "p", Width: 10, Height: 10}},
	}

	out := Normalize(msg)
	if len(out.FormatEntities) != 1 || out.FormatEntities[0] != "hashtag:0-5" {
		t.Errorf("caption entities not serialized, got %v", out.FormatEntities)
	}
}

func TestNormalizedMessage_Metadata(t *testing.T) {
	out := Normalize(&Message{
		MessageID:     1,
		Caption:       "clip",
		Animation:     &MediaFile{FileID: "anim-9"},
		ForwardOrigin: &ForwardOrigin{Type: "channel", Chat: &Chat{Username: "src"}},
	})

	meta := out.Metadata()
	want := []string{"media:animation:anim-9", "forwarded_from:@src"}
	if !reflect.DeepEqual(meta, want) {
		t.Errorf("metadata = %v, want %v", meta, want)
	}
}
