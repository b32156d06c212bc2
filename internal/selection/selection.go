// Package selection bridges a folder menu sent to a user and the button press
// that comes back at some later time.
//
// Every menu is a session identified by a token. The token and the folder id
// travel in the button payload; the resolved path and display name stay here.
// A session is consumed by the first valid press and expires after a TTL.
package selection

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nicolagi/tgdrive/internal/drive"
)

// Prefix starts every folder selection payload.
const Prefix = "set_folder_"

// MaxPayload is the largest callback payload Telegram accepts, in bytes.
const MaxPayload = 64

var (
	// ErrNotFound covers expired, consumed and never created sessions alike.
	ErrNotFound         = errors.New("selection not found")
	ErrMalformedPayload = errors.New("malformed selection payload")
)

// Entry is what a button resolves to.
type Entry struct {
	Path string
	Name string
}

type session map[string]Entry

// Cache holds the pending sessions.
type Cache struct {
	next atomic.Int64

	mu       sync.Mutex
	sessions *expirable.LRU[int64, session]
}

// NewCache returns a cache keeping at most size sessions (0 means no bound)
// for at most ttl each (0 means forever).
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		sessions: expirable.NewLRU[int64, session](size, nil, ttl),
	}
}

// Create registers a session offering candidates and returns its token.
// Tokens start at 1 and strictly increase.
func (c *Cache) Create(candidates []drive.Candidate) int64 {
	s := make(session, len(candidates))
	for _, cand := range candidates {
		s[cand.ID] = Entry{
			Path: drive.ResolvePath(cand.Path, cand.ID),
			Name: cand.Name,
		}
	}
	token := c.next.Add(1)
	c.mu.Lock()
	c.sessions.Add(token, s)
	c.mu.Unlock()
	return token
}

// Consume resolves candidateID within the session and deletes the session.
// A candidate unknown to a live session leaves the session alone.
func (c *Cache) Consume(token int64, candidateID string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions.Peek(token)
	if !ok {
		return Entry{}, ErrNotFound
	}
	e, ok := s[candidateID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	c.sessions.Remove(token)
	return e, nil
}

// Len counts live and expired-but-unswept sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Len()
}

// Payload encodes a button press on candidateID in session token.
func Payload(token int64, candidateID string) string {
	return Prefix + strconv.FormatInt(token, 10) + "_" + candidateID
}

// Selectable reports whether candidateID fits a payload whatever the token.
func Selectable(candidateID string) bool {
	return drive.ValidID(candidateID) && len(Payload(math.MaxInt64, candidateID)) <= MaxPayload
}

// ParsePayload splits data produced by Payload. Only the last two
// underscore-separated fields are significant.
func ParsePayload(data string) (token int64, candidateID string, err error) {
	if !strings.HasPrefix(data, Prefix) {
		return 0, "", ErrMalformedPayload
	}
	fields := strings.Split(data, "_")
	if len(fields) < 4 {
		return 0, "", ErrMalformedPayload
	}
	candidateID = fields[len(fields)-1]
	token, err = strconv.ParseInt(fields[len(fields)-2], 10, 64)
	if err != nil || token <= 0 || candidateID == "" {
		return 0, "", ErrMalformedPayload
	}
	return token, candidateID, nil
}
