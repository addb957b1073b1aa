package feed

import "time"

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID      uint64
	Message string
	Level   Level
	At      time.Time
}

// PendingTransaction is a history entry, recorded as soon as a call is
// accepted by the node and never changed afterwards.
type PendingTransaction struct {
	Action string
	Hash   string
	At     time.Time
}

// EventRecord is one decoded contract event.
type EventRecord struct {
	EventName string
	Args      []string
	TxHash    string
	Block     uint64
}

// ShortHash returns the first 20 characters of a hash followed by "...".
func ShortHash(hash string) string {
	if len(hash) <= 20 {
		return hash
	}
	return hash[:20] + "..."
}
