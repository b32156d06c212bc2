package bot

import "context"

// Chat is what the bot needs from the messaging transport.
type Chat interface {
	// Send sends text to a chat, with one button per row when buttons is
	// not empty, and returns the id of the sent message.
	Send(ctx context.Context, chatID int64, text string, buttons []Button) (int, error)
	// Edit replaces the text of a sent message, dropping its buttons.
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Answer acknowledges a button press with a transient notice.
	Answer(ctx context.Context, callbackID, text string) error
	// Relay sends a copy of the attachment, without caption, to channelID and
	// returns the id of the copy in that channel.
	Relay(ctx context.Context, channelID int64, a Attachment) (int, error)
}

// Button is an inline button carrying an opaque payload.
type Button struct {
	Label   string
	Payload string
}

// Message is an inbound chat message.
type Message struct {
	ID      int
	ChatID  int64
	UserID  int64
	Private bool
	Text    string
	// Command is the bot command without slash or bot mention, empty when the
	// message is not a command.
	Command    string
	Attachment *Attachment
}

// CallbackQuery is an inbound button press.
type CallbackQuery struct {
	ID        string
	UserID    int64
	ChatID    int64
	MessageID int
	Data      string
}

// AttachmentKind tags an Attachment.
type AttachmentKind int

const (
	AttachmentDocument AttachmentKind = iota + 1
	AttachmentVideo
	AttachmentAudio
	AttachmentPhoto
	AttachmentSticker
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentDocument:
		return "document"
	case AttachmentVideo:
		return "video"
	case AttachmentAudio:
		return "audio"
	case AttachmentPhoto:
		return "photo"
	case AttachmentSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// Attachment is the one file a message carries.
type Attachment struct {
	Kind     AttachmentKind
	FileName string
	Size     int64
	MimeType string
	// FileID is the transport's handle on the file, enough to send it again.
	FileID string
}

func Document(fileName string, size int64, mimeType, fileID string) Attachment {
	return Attachment{Kind: AttachmentDocument, FileName: fileName, Size: size, MimeType: mimeType, FileID: fileID}
}

func Video(fileName string, size int64, mimeType, fileID string) Attachment {
	return Attachment{Kind: AttachmentVideo, FileName: fileName, Size: size, MimeType: mimeType, FileID: fileID}
}

func Audio(fileName string, size int64, mimeType, fileID string) Attachment {
	return Attachment{Kind: AttachmentAudio, FileName: fileName, Size: size, MimeType: mimeType, FileID: fileID}
}

func Photo(fileName string, size int64, mimeType, fileID string) Attachment {
	return Attachment{Kind: AttachmentPhoto, FileName: fileName, Size: size, MimeType: mimeType, FileID: fileID}
}

func Sticker(fileName string, size int64, mimeType, fileID string) Attachment {
	return Attachment{Kind: AttachmentSticker, FileName: fileName, Size: size, MimeType: mimeType, FileID: fileID}
}
