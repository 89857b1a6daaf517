package arcade

import (
	"sync"
	"time"
)

// FrameID identifies a requested frame callback
type FrameID uint64

// FrameScheduler is the host's animation-frame facility
type FrameScheduler interface {
	RequestFrame(cb func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// ManualFrames is a FrameScheduler driven by explicit Fire calls, e.g. from a
// host ticker or a test. At most one callback is pending at a time; a new
// request replaces the previous one.
type ManualFrames struct {
	mu      sync.Mutex
	next    FrameID
	pending FrameID
	cb      func(now time.Time)
}

// NewManualFrames creates an idle scheduler
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// RequestFrame registers cb for the next Fire
func (f *ManualFrames) RequestFrame(cb func(now time.Time)) FrameID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.pending = f.next
	f.cb = cb
	return f.pending
}

// CancelFrame drops the pending callback if it is id
func (f *ManualFrames) CancelFrame(id FrameID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == id {
		f.pending = 0
		f.cb = nil
	}
}

// Pending reports whether a callback is waiting
func (f *ManualFrames) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

// Fire runs the pending callback, if any, and reports whether one ran
func (f *ManualFrames) Fire(now time.Time) bool {
	f.mu.Lock()
	cb := f.cb
	f.cb = nil
	f.pending = 0
	f.mu.Unlock()

	if cb == nil {
		return false
	}
	cb(now)
	return true
}
