package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrTimeout = errors.New("no reply in time")
	ErrBusy    = errors.New("already waiting for a reply")
)

// Conversations routes text replies to the goroutine that asked for them.
// At most one question per chat is outstanding.
type Conversations struct {
	mu      sync.Mutex
	waiting map[int64]chan Message
}

func NewConversations() *Conversations {
	return &Conversations{waiting: make(map[int64]chan Message)}
}

// Ask sends prompt to the chat and waits for the next text message Deliver
// routes to it, at most timeout.
func (c *Conversations) Ask(ctx context.Context, chat Chat, chatID int64, prompt string, timeout time.Duration) (Message, error) {
	ch := make(chan Message, 1)
	c.mu.Lock()
	if _, ok := c.waiting[chatID]; ok {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.waiting[chatID] = ch
	c.mu.Unlock()
	defer c.forget(chatID, ch)

	if _, err := chat.Send(ctx, chatID, prompt, nil); err != nil {
		return Message{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-ch:
		return m, nil
	case <-timer.C:
		return Message{}, ErrTimeout
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Deliver hands m to the question outstanding in its chat, if any.
func (c *Conversations) Deliver(m Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.waiting[m.ChatID]
	if !ok {
		return false
	}
	delete(c.waiting, m.ChatID)
	ch <- m
	return true
}

// Waiting reports whether a question is outstanding in the chat.
func (c *Conversations) Waiting(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.waiting[chatID]
	return ok
}

func (c *Conversations) forget(chatID int64, ch chan Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiting[chatID] == ch {
		delete(c.waiting, chatID)
	}
}
