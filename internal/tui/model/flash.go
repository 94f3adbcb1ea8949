package model

import (
	"sync"
	"time"
)

// FlashLevel distinguishes informational notices from errors.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashError
)

// DefaultFlashDuration is how long a notice stays in the status bar.
const DefaultFlashDuration = 4 * time.Second

// Flash holds transient notification messages.
type Flash struct {
	mu      sync.RWMutex
	message string
	level   FlashLevel
	expires time.Time
	now     func() time.Time
}

// Set stores an informational flash message that expires after the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.set(msg, FlashInfo, d)
}

// SetError stores an error flash message that expires after the given duration.
func (f *Flash) SetError(msg string, d time.Duration) {
	f.set(msg, FlashError, d)
}

func (f *Flash) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.level = level
	f.expires = f.clock().Add(d)
}

// Get returns the current flash message, or empty if expired.
func (f *Flash) Get() (string, FlashLevel) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.clock().After(f.expires) {
		return "", FlashInfo
	}
	return f.message, f.level
}

// Clear drops the current message.
func (f *Flash) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = ""
	f.expires = time.Time{}
}

func (f *Flash) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
