package utils

import (
	"sync"
	"time"
)

// RevocationList remembers revoked token ids until the token would have
// expired anyway.
type RevocationList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{entries: make(map[string]time.Time)}
}

func (l *RevocationList) Revoke(tokenID string, until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for id, expiry := range l.entries {
		if now.After(expiry) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = until
}

func (l *RevocationList) IsRevoked(tokenID string, now time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	expiry, ok := l.entries[tokenID]
	return ok && now.Before(expiry)
}

func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
