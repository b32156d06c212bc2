package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/metrics"
)

// IngestFile stores the attachment of m: copy to the storage channel, record
// the copy in the index under the sender's folder, confirm. A step failing
// stops the sequence, so no confirmation follows a failed relay or insert.
func (b *Bot) IngestFile(ctx context.Context, m Message) error {
	a := *m.Attachment
	kind := a.Kind.String()

	storedID, err := b.chat.Relay(ctx, b.storage, a)
	if err != nil {
		metrics.RecordUpload(kind, "relay_error", a.Size)
		b.reply(ctx, m.ChatID, uploadFailedText(fmt.Errorf("could not copy the file to the storage channel")))
		return fmt.Errorf("relay %s %q: %w", kind, a.FileName, err)
	}

	t := b.targets.Get(m.UserID)
	start := time.Now()
	_, err = b.index.NewFile(ctx, t.Path, a.FileName, int64(storedID), a.Size)
	metrics.ObserveStore("new_file", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordUpload(kind, "store_error", a.Size)
		b.reply(ctx, m.ChatID, uploadFailedText(fmt.Errorf("could not record the file in folder %s", t.Name)))
		return fmt.Errorf("record %q in %s: %w", a.FileName, t.Path, err)
	}

	metrics.RecordUpload(kind, "ok", a.Size)
	b.log.Info("file ingested",
		zap.Int64("user_id", m.UserID),
		zap.String("kind", kind),
		zap.String("name", a.FileName),
		zap.Int64("size", a.Size),
		zap.Int("stored_message_id", storedID),
		zap.String("folder", t.Path),
	)
	if _, err := b.chat.Send(ctx, m.ChatID, uploadedText(a, t.Name), nil); err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	return nil
}
