package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/nicolagi/tgdrive/internal/bot"
)

func private(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func TestMessageFromCommand(t *testing.T) {
	msg := &tgbotapi.Message{
		MessageID: 5,
		From:      &tgbotapi.User{ID: 42},
		Chat:      private(42),
		Text:      "/Set_Folder@tgdrive_bot",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 23}},
	}
	got := messageFrom(msg)
	want := &bot.Message{ID: 5, ChatID: 42, UserID: 42, Private: true, Text: "/Set_Folder@tgdrive_bot", Command: "set_folder"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMessageFromGroupText(t *testing.T) {
	msg := &tgbotapi.Message{
		MessageID: 6,
		From:      &tgbotapi.User{ID: 42},
		Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		Text:      "proj",
	}
	got := messageFrom(msg)
	want := &bot.Message{ID: 6, ChatID: -100, UserID: 42, Text: "proj"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMessageFromWithoutSender(t *testing.T) {
	if m := messageFrom(&tgbotapi.Message{Chat: private(1)}); m != nil {
		t.Errorf("got %+v, want nil", m)
	}
	if m := messageFrom(nil); m != nil {
		t.Errorf("got %+v, want nil", m)
	}
}

func TestAttachmentFrom(t *testing.T) {
	for _, tc := range []struct {
		name string
		msg  *tgbotapi.Message
		want *bot.Attachment
	}{
		{
			name: "document",
			msg: &tgbotapi.Message{Document: &tgbotapi.Document{
				FileID: "d1", FileUniqueID: "u1", FileName: "report.pdf", MimeType: "application/pdf", FileSize: 2097152,
			}},
			want: ptr(bot.Document("report.pdf", 2097152, "application/pdf", "d1")),
		},
		{
			name: "unnamed document",
			msg:  &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d2", FileUniqueID: "u2", FileSize: 3}},
			want: ptr(bot.Document("document_u2", 3, "", "d2")),
		},
		{
			name: "video",
			msg: &tgbotapi.Message{Video: &tgbotapi.Video{
				FileID: "v1", FileUniqueID: "u3", FileName: "clip.mp4", MimeType: "video/mp4", FileSize: 10,
			}},
			want: ptr(bot.Video("clip.mp4", 10, "video/mp4", "v1")),
		},
		{
			name: "audio",
			msg: &tgbotapi.Message{Audio: &tgbotapi.Audio{
				FileID: "a1", FileUniqueID: "u4", FileName: "song.mp3", MimeType: "audio/mpeg", FileSize: 11,
			}},
			want: ptr(bot.Audio("song.mp3", 11, "audio/mpeg", "a1")),
		},
		{
			name: "photo picks the largest size",
			msg: &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
				{FileID: "small", FileUniqueID: "us", FileSize: 100},
				{FileID: "large", FileUniqueID: "ul", FileSize: 900},
			}},
			want: ptr(bot.Photo("photo_ul.jpg", 900, "image/jpeg", "large")),
		},
		{
			name: "sticker",
			msg:  &tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "s1", FileUniqueID: "u5", FileSize: 12}},
			want: ptr(bot.Sticker("sticker_u5.webp", 12, "image/webp", "s1")),
		},
		{
			name: "plain text",
			msg:  &tgbotapi.Message{Text: "hello"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, attachmentFrom(tc.msg)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCallbackFrom(t *testing.T) {
	q := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{MessageID: 9, Chat: private(42)},
		Data:    "set_folder_1_F2",
	}
	want := &bot.CallbackQuery{ID: "cb", UserID: 42, ChatID: 42, MessageID: 9, Data: "set_folder_1_F2"}
	if diff := cmp.Diff(want, callbackFrom(q)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if callbackFrom(nil) != nil {
		t.Error("got a query from nil")
	}
}

func TestKeyboardOneButtonPerRow(t *testing.T) {
	kb := keyboard([]bot.Button{{Label: "A", Payload: "set_folder_1_a"}, {Label: "B", Payload: "set_folder_1_b"}})
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("got %d rows", len(kb.InlineKeyboard))
	}
	for i, want := range []string{"set_folder_1_a", "set_folder_1_b"} {
		row := kb.InlineKeyboard[i]
		if len(row) != 1 || row[0].CallbackData == nil || *row[0].CallbackData != want {
			t.Errorf("row %d: got %+v", i, row)
		}
	}
}

func TestRelayConfig(t *testing.T) {
	for _, a := range []bot.Attachment{
		bot.Document("a", 1, "", "f"),
		bot.Video("a", 1, "", "f"),
		bot.Audio("a", 1, "", "f"),
		bot.Photo("a", 1, "", "f"),
		bot.Sticker("a", 1, "", "f"),
	} {
		if _, err := relayConfig(-1001, a); err != nil {
			t.Errorf("%s: %v", a.Kind, err)
		}
	}
	if _, err := relayConfig(-1001, bot.Attachment{FileID: "f"}); err == nil {
		t.Error("got nil error for a zero attachment")
	}
}

func ptr(a bot.Attachment) *bot.Attachment {
	return &a
}
