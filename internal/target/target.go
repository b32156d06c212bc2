// Package target tracks the folder each user's uploads are filed under.
package target

import "sync"

// Target is an upload destination: the folder path in the index and its
// display name.
type Target struct {
	Path string
	Name string
}

// Registry holds one Target per user. Users that never chose a folder get
// the default. Reads and writes are atomic: a reader sees a whole Target,
// never the path of one selection with the name of another.
type Registry struct {
	mu       sync.RWMutex
	def      Target
	byUserID map[int64]Target
}

func NewRegistry(def Target) *Registry {
	return &Registry{
		def:      def,
		byUserID: make(map[int64]Target),
	}
}

// Get returns the current target of the user.
func (r *Registry) Get(userID int64) Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.byUserID[userID]; ok {
		return t
	}
	return r.def
}

// Set makes t the target of the user.
func (r *Registry) Set(userID int64, t Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUserID[userID] = t
}
