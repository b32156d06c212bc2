package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nicolagi/tgdrive/internal/bot"
)

// messageFrom returns nil for messages without sender or chat, such as
// channel posts.
func messageFrom(msg *tgbotapi.Message) *bot.Message {
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	m := &bot.Message{
		ID:         msg.MessageID,
		ChatID:     msg.Chat.ID,
		UserID:     msg.From.ID,
		Private:    msg.Chat.IsPrivate(),
		Text:       msg.Text,
		Attachment: attachmentFrom(msg),
	}
	if msg.IsCommand() {
		m.Command = strings.ToLower(msg.Command())
	}
	return m
}

func callbackFrom(q *tgbotapi.CallbackQuery) *bot.CallbackQuery {
	if q == nil || q.From == nil {
		return nil
	}
	cq := &bot.CallbackQuery{
		ID:     q.ID,
		UserID: q.From.ID,
		Data:   q.Data,
	}
	if q.Message != nil {
		cq.MessageID = q.Message.MessageID
		if q.Message.Chat != nil {
			cq.ChatID = q.Message.Chat.ID
		}
	}
	return cq
}

// attachmentFrom picks the single file a message carries. Photos and
// stickers come without a file name, so one is made up from the file's
// unique id.
func attachmentFrom(msg *tgbotapi.Message) *bot.Attachment {
	var a bot.Attachment
	switch {
	case msg.Document != nil:
		d := msg.Document
		a = bot.Document(orName(d.FileName, "document", d.FileUniqueID), int64(d.FileSize), d.MimeType, d.FileID)
	case msg.Video != nil:
		v := msg.Video
		a = bot.Video(orName(v.FileName, "video", v.FileUniqueID+".mp4"), int64(v.FileSize), v.MimeType, v.FileID)
	case msg.Audio != nil:
		au := msg.Audio
		a = bot.Audio(orName(au.FileName, "audio", au.FileUniqueID), int64(au.FileSize), au.MimeType, au.FileID)
	case len(msg.Photo) > 0:
		// Sizes are ordered smallest first.
		p := msg.Photo[len(msg.Photo)-1]
		a = bot.Photo("photo_"+p.FileUniqueID+".jpg", int64(p.FileSize), "image/jpeg", p.FileID)
	case msg.Sticker != nil:
		s := msg.Sticker
		if s.IsAnimated {
			a = bot.Sticker("sticker_"+s.FileUniqueID+".tgs", int64(s.FileSize), "application/x-tgsticker", s.FileID)
		} else {
			a = bot.Sticker("sticker_"+s.FileUniqueID+".webp", int64(s.FileSize), "image/webp", s.FileID)
		}
	default:
		return nil
	}
	return &a
}

func orName(name, kind, uniq string) string {
	if name != "" {
		return name
	}
	return kind + "_" + uniq
}
