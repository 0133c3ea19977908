package ui

import (
	"sync"
	"time"
)

// KeyDebouncer drops repeats of an action that arrive faster than its delay,
// so a held refresh key does not flood the API.
type KeyDebouncer struct {
	mu          sync.Mutex
	lastKeyTime map[string]time.Time
	repeatDelay time.Duration
	now         func() time.Time
}

// NewKeyDebouncer creates a new key debouncer
func NewKeyDebouncer(repeatDelay time.Duration) *KeyDebouncer {
	return &KeyDebouncer{
		lastKeyTime: make(map[string]time.Time),
		repeatDelay: repeatDelay,
		now:         time.Now,
	}
}

// ShouldProcess returns true if the action should run now
func (kd *KeyDebouncer) ShouldProcess(key string) bool {
	kd.mu.Lock()
	defer kd.mu.Unlock()

	now := kd.now()
	if last, ok := kd.lastKeyTime[key]; ok && now.Sub(last) < kd.repeatDelay {
		return false
	}
	kd.lastKeyTime[key] = now
	return true
}

// Reset clears the debouncer state for a specific key
func (kd *KeyDebouncer) Reset(key string) {
	kd.mu.Lock()
	defer kd.mu.Unlock()
	delete(kd.lastKeyTime, key)
}
