package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/metrics"
	"github.com/nicolagi/tgdrive/internal/selection"
	"github.com/nicolagi/tgdrive/internal/target"
)

// CommitSelection applies a folder menu button press. Malformed, replayed
// and expired payloads all get the same notice and lose their menu.
func (b *Bot) CommitSelection(ctx context.Context, q CallbackQuery) {
	log := b.log.With(zap.Int64("user_id", q.UserID), zap.String("data", q.Data))

	token, folderID, err := selection.ParsePayload(q.Data)
	var e selection.Entry
	if err == nil {
		e, err = b.cache.Consume(token, folderID)
	}
	metrics.SetPendingSelections(b.cache.Len())
	if err != nil {
		metrics.RecordSelection("expired")
		log.Info("stale folder selection", zap.Error(err))
		if err := b.chat.Answer(ctx, q.ID, expiredText); err != nil {
			log.Warn("answer callback", zap.Error(err))
		}
		if err := b.chat.Delete(ctx, q.ChatID, q.MessageID); err != nil {
			log.Warn("delete stale menu", zap.Error(err))
		}
		return
	}

	b.targets.Set(q.UserID, target.Target{Path: e.Path, Name: e.Name})
	metrics.RecordSelection("ok")
	log.Info("upload folder set", zap.String("path", e.Path), zap.String("name", e.Name))

	if err := b.chat.Answer(ctx, q.ID, folderSetNotice(e.Name)); err != nil {
		log.Warn("answer callback", zap.Error(err))
	}
	if err := b.chat.Edit(ctx, q.ChatID, q.MessageID, folderSetText(e.Name)); err != nil {
		log.Warn("edit menu", zap.Error(err))
	}
}
