// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/bot"
	"github.com/nicolagi/tgdrive/internal/logging"
)

// Handler consumes inbound updates. Both methods may block.
type Handler interface {
	HandleMessage(ctx context.Context, m bot.Message)
	HandleCallback(ctx context.Context, q bot.CallbackQuery)
}

// Client implements bot.Chat on top of the Bot API.
type Client struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

// Dial authenticates token against the API at endpoint, a format string
// taking the token and the method name.
func Dial(token, endpoint string, logger *zap.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log := logging.OrNop(logger)
	log.Info("authorized", zap.String("username", api.Self.UserName), zap.Int64("bot_id", api.Self.ID))
	return &Client{api: api, log: log}, nil
}

func (c *Client) Send(ctx context.Context, chatID int64, text string, buttons []bot.Button) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = keyboard(buttons)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("edit %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

func (c *Client) Answer(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func (c *Client) Relay(ctx context.Context, channelID int64, a bot.Attachment) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg, err := relayConfig(channelID, a)
	if err != nil {
		return 0, err
	}
	sent, err := c.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("relay %s to %d: %w", a.Kind, channelID, err)
	}
	return sent.MessageID, nil
}

// Run long-polls for updates and dispatches each on its own goroutine until
// ctx is done, then waits for the handlers to return.
func (c *Client) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.api.GetUpdatesChan(u)
	c.log.Info("waiting for updates")

	var wg sync.WaitGroup
	defer wg.Wait()
	defer c.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if q := callbackFrom(update.CallbackQuery); q != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					h.HandleCallback(ctx, *q)
				}()
				continue
			}
			if m := messageFrom(update.Message); m != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					h.HandleMessage(ctx, *m)
				}()
			}
		}
	}
}

func keyboard(buttons []bot.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Payload)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func relayConfig(channelID int64, a bot.Attachment) (tgbotapi.Chattable, error) {
	file := tgbotapi.FileID(a.FileID)
	switch a.Kind {
	case bot.AttachmentDocument:
		return tgbotapi.NewDocument(channelID, file), nil
	case bot.AttachmentVideo:
		return tgbotapi.NewVideo(channelID, file), nil
	case bot.AttachmentAudio:
		return tgbotapi.NewAudio(channelID, file), nil
	case bot.AttachmentPhoto:
		return tgbotapi.NewPhoto(channelID, file), nil
	case bot.AttachmentSticker:
		return tgbotapi.NewSticker(channelID, file), nil
	default:
		return nil, fmt.Errorf("relay: unsupported attachment kind %d", a.Kind)
	}
}
