package authkit

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is an expiring in-memory store intended for tests and
// local runs without a cache backend.
type MemorySessionStore struct {
	mutex   sync.Mutex
	entries map[string]memorySessionEntry
	now     func() time.Time
}

type memorySessionEntry struct {
	token     string
	expiresAt time.Time
}

// NewMemorySessionStore constructs an empty in-memory session store.
func NewMemorySessionStore(clock Clock) *MemorySessionStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &MemorySessionStore{
		entries: make(map[string]memorySessionEntry),
		now:     clock.Now,
	}
}

// Put stores a token under the session key, overwriting any prior value.
func (store *MemorySessionStore) Put(ctx context.Context, userID string, kind TokenKind, token string, ttl time.Duration) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.purgeExpiredLocked()
	store.entries[SessionKey(kind, userID)] = memorySessionEntry{
		token:     token,
		expiresAt: store.now().Add(ttl),
	}
	return nil
}

// Get returns the stored token, or absence if missing or expired.
func (store *MemorySessionStore) Get(ctx context.Context, userID string, kind TokenKind) (string, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	entry, ok := store.entries[SessionKey(kind, userID)]
	if !ok {
		return "", false, nil
	}
	if store.now().After(entry.expiresAt) {
		delete(store.entries, SessionKey(kind, userID))
		return "", false, nil
	}
	return entry.token, true, nil
}

// Delete removes the stored token. Deleting an absent key is not an error.
func (store *MemorySessionStore) Delete(ctx context.Context, userID string, kind TokenKind) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	delete(store.entries, SessionKey(kind, userID))
	return nil
}

func (store *MemorySessionStore) purgeExpiredLocked() {
	if len(store.entries) == 0 {
		return
	}
	now := store.now()
	for key, entry := range store.entries {
		if now.After(entry.expiresAt) {
			delete(store.entries, key)
		}
	}
}
