// Package feed holds what the user sees scroll by during a session:
// transient notifications, the transaction history and decoded contract events.
package feed

import (
	"fmt"
	"slices"
	"time"
)

// Mode selects how notifications are retained.
type Mode string

const (
	// ModeExpire drops each notification once its TTL has passed.
	ModeExpire Mode = "expire"
	// ModeReplace keeps only the newest notification.
	ModeReplace Mode = "replace"
)

// DefaultTTL is how long a notification stays up in ModeExpire.
const DefaultTTL = 5 * time.Second

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeExpire, ModeReplace:
		return Mode(s), nil
	case "":
		return ModeExpire, nil
	}
	return "", fmt.Errorf("unknown notification mode %q (want %q or %q)", s, ModeExpire, ModeReplace)
}

// Feed is the session sink. History only grows; events are kept newest first.
// It has no lock: the UI loop is its only writer and reader.
type Feed struct {
	mode   Mode
	ttl    time.Duration
	nextID uint64

	notifications []Notification
	history       []PendingTransaction
	events        []EventRecord
}

// New creates an empty feed.
func New(mode Mode, ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if mode == "" {
		mode = ModeExpire
	}
	return &Feed{mode: mode, ttl: ttl}
}

// Notify adds a notification and returns it with its assigned ID.
func (f *Feed) Notify(n Notification) Notification {
	f.nextID++
	n.ID = f.nextID
	if f.mode == ModeReplace {
		f.notifications = []Notification{n}
		return n
	}
	f.notifications = append(f.notifications, n)
	return n
}

// Expire removes notifications older than the TTL and returns how many were
// removed. It does nothing in ModeReplace.
func (f *Feed) Expire(now time.Time) int {
	if f.mode != ModeExpire {
		return 0
	}
	before := len(f.notifications)
	f.notifications = slices.DeleteFunc(f.notifications, func(n Notification) bool {
		return !now.Before(n.At.Add(f.ttl))
	})
	return before - len(f.notifications)
}

// Record appends a transaction to the history.
func (f *Feed) Record(tx PendingTransaction) {
	f.history = append(f.history, tx)
}

// AddEvent puts ev at the front of the event list.
func (f *Feed) AddEvent(ev EventRecord) {
	f.events = slices.Insert(f.events, 0, ev)
}

// Notifications returns the visible notifications, oldest first.
func (f *Feed) Notifications() []Notification { return slices.Clone(f.notifications) }

// History returns the transaction history, oldest first.
func (f *Feed) History() []PendingTransaction { return slices.Clone(f.history) }

// Events returns decoded events, newest first.
func (f *Feed) Events() []EventRecord { return slices.Clone(f.events) }

// Mode returns the retention mode.
func (f *Feed) Mode() Mode { return f.mode }
