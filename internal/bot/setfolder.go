package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/metrics"
	"github.com/nicolagi/tgdrive/internal/selection"
)

// SetFolder runs the folder resolution conversation for the sender of m:
// ask for a name until a search finds folders, then present them as a menu.
// Timeouts and cancellations end the conversation with a notice.
func (b *Bot) SetFolder(ctx context.Context, m Message) {
	if !b.begin(m.UserID) {
		metrics.RecordWorkflow("busy")
		b.reply(ctx, m.ChatID, busyText)
		return
	}
	defer b.end(m.UserID)
	outcome := b.resolveFolder(ctx, m.ChatID)
	metrics.RecordWorkflow(outcome)
	b.log.Debug("folder resolution finished", zap.Int64("user_id", m.UserID), zap.String("outcome", outcome))
}

func (b *Bot) resolveFolder(ctx context.Context, chatID int64) string {
	for {
		answer, err := b.conv.Ask(ctx, b.chat, chatID, askFolderText, b.askTimeout)
		if errors.Is(err, ErrTimeout) {
			b.reply(ctx, chatID, timeoutText)
			return "timeout"
		}
		if err != nil {
			b.log.Warn("ask folder name", zap.Int64("chat_id", chatID), zap.Error(err))
			return "error"
		}
		if strings.EqualFold(answer.Command, cancelCommand) || strings.EqualFold(strings.TrimSpace(answer.Text), "/"+cancelCommand) {
			b.reply(ctx, chatID, cancelledText)
			return "cancelled"
		}

		name := strings.TrimSpace(answer.Text)
		start := time.Now()
		found, err := b.index.Search(ctx, name)
		metrics.ObserveStore("search", time.Since(start).Seconds())
		if err != nil {
			b.log.Error("search index", zap.String("query", name), zap.Error(err))
			b.reply(ctx, chatID, searchFailedText(err))
			return "store_error"
		}

		candidates := b.selectable(drive.Folders(found))
		if len(candidates) == 0 {
			b.reply(ctx, chatID, noFolderText(name))
			continue
		}

		token := b.cache.Create(candidates)
		metrics.SetPendingSelections(b.cache.Len())
		buttons := make([]Button, 0, len(candidates))
		for _, c := range candidates {
			buttons = append(buttons, Button{Label: c.Name, Payload: selection.Payload(token, c.ID)})
		}
		if _, err := b.chat.Send(ctx, chatID, selectFolderText, buttons); err != nil {
			b.log.Error("send folder menu", zap.Int64("chat_id", chatID), zap.Error(err))
			return "error"
		}
		return "menu"
	}
}

// selectable drops the candidates whose id cannot travel in a payload.
func (b *Bot) selectable(candidates []drive.Candidate) []drive.Candidate {
	out := candidates[:0]
	for _, c := range candidates {
		if !selection.Selectable(c.ID) {
			b.log.Warn("folder id unusable in a button payload", zap.String("folder_id", c.ID), zap.String("name", c.Name))
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *Bot) begin(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolving[userID] {
		return false
	}
	b.resolving[userID] = true
	return true
}

func (b *Bot) end(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.resolving, userID)
}
