// Package bot implements the bot's conversations: folder selection, upload
// target bookkeeping and file ingestion. It talks to the messaging transport
// and to the drive index only through the Chat and Index interfaces.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/logging"
	"github.com/nicolagi/tgdrive/internal/metrics"
	"github.com/nicolagi/tgdrive/internal/selection"
	"github.com/nicolagi/tgdrive/internal/target"
)

// Index is the part of the drive index the bot uses.
type Index interface {
	Search(ctx context.Context, query string) (map[string]drive.Item, error)
	NewFile(ctx context.Context, folderPath, name string, messageID, size int64) (drive.Item, error)
}

type Config struct {
	AdminIDs       []int64
	StorageChannel int64
	AskTimeout     time.Duration
}

type Bot struct {
	chat    Chat
	index   Index
	cache   *selection.Cache
	targets *target.Registry
	conv    *Conversations
	log     *zap.Logger

	admins     map[int64]bool
	storage    int64
	askTimeout time.Duration

	mu sync.Mutex
	// resolving holds the users with a folder resolution in progress.
	resolving map[int64]bool
}

func New(cfg Config, chat Chat, index Index, cache *selection.Cache, targets *target.Registry, logger *zap.Logger) *Bot {
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	return &Bot{
		chat:       chat,
		index:      index,
		cache:      cache,
		targets:    targets,
		conv:       NewConversations(),
		log:        logging.OrNop(logger),
		admins:     admins,
		storage:    cfg.StorageChannel,
		askTimeout: cfg.AskTimeout,
		resolving:  make(map[int64]bool),
	}
}

// Authorized reports whether the bot answers to the user.
func (b *Bot) Authorized(userID int64) bool {
	return b.admins[userID]
}

// HandleMessage handles one inbound message. It may block for as long as a
// folder resolution lasts, so callers run it on its own goroutine.
func (b *Bot) HandleMessage(ctx context.Context, m Message) {
	log := b.log.With(zap.Int64("user_id", m.UserID), zap.Int64("chat_id", m.ChatID), zap.Int("message_id", m.ID))
	if !m.Private || !b.Authorized(m.UserID) {
		metrics.RecordUpdate("message", false)
		log.Debug("ignoring message from unauthorized user or non-private chat")
		return
	}
	metrics.RecordUpdate("message", true)

	if m.Attachment != nil {
		if err := b.IngestFile(ctx, m); err != nil {
			log.Error("file ingestion failed", zap.Error(err))
		}
		return
	}

	cmd := strings.ToLower(m.Command)
	switch {
	case cmd == "":
		if m.Text != "" && !b.conv.Deliver(m) {
			log.Debug("ignoring text outside a conversation")
		}
	case cmd == cancelCommand:
		if !b.conv.Deliver(m) {
			b.reply(ctx, m.ChatID, nothingToCancelText)
		}
	case cmd == "start" || cmd == "help":
		b.reply(ctx, m.ChatID, helpText)
	case cmd == "set_folder":
		b.SetFolder(ctx, m)
	case cmd == "current_folder":
		b.reply(ctx, m.ChatID, currentFolderText(b.targets.Get(m.UserID).Name))
	default:
		b.reply(ctx, m.ChatID, unknownCommandText)
	}
}

// HandleCallback handles one button press.
func (b *Bot) HandleCallback(ctx context.Context, q CallbackQuery) {
	if !b.Authorized(q.UserID) {
		metrics.RecordUpdate("callback", false)
		b.log.Debug("ignoring callback from unauthorized user", zap.Int64("user_id", q.UserID))
		return
	}
	metrics.RecordUpdate("callback", true)
	if strings.HasPrefix(q.Data, selection.Prefix) {
		b.CommitSelection(ctx, q)
		return
	}
	if err := b.chat.Answer(ctx, q.ID, unknownActionText); err != nil {
		b.log.Warn("answer callback", zap.Error(err))
	}
}

// Announce tells the storage channel the bot is up.
func (b *Bot) Announce(ctx context.Context) error {
	_, err := b.chat.Send(ctx, b.storage, startedText, nil)
	return err
}

// reply sends a notice, logging transport failures: there is nobody left to
// report them to.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.chat.Send(ctx, chatID, text, nil); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Warn("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
