package feed

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Bus topics.
const (
	TopicNotify = "feed:notify"
	TopicTx     = "feed:tx"
	TopicEvent  = "feed:event"
)

// Publisher is what the submitter and the event bridge report through.
type Publisher interface {
	Notify(level Level, msg string)
	RecordTx(tx PendingTransaction)
	RecordEvent(ev EventRecord)
}

// Bus fans records out to every subscriber. Publish is synchronous: handlers
// run on the publishing goroutine with the bus lock held, so they must not
// block or publish themselves.
type Bus struct {
	bus evbus.Bus
	now func() time.Time
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{bus: evbus.New(), now: time.Now}
}

// Notify publishes a notification.
func (b *Bus) Notify(level Level, msg string) {
	b.bus.Publish(TopicNotify, Notification{Message: msg, Level: level, At: b.now()})
}

// RecordTx publishes a history entry.
func (b *Bus) RecordTx(tx PendingTransaction) {
	if tx.At.IsZero() {
		tx.At = b.now()
	}
	b.bus.Publish(TopicTx, tx)
}

// RecordEvent publishes a decoded contract event.
func (b *Bus) RecordEvent(ev EventRecord) {
	b.bus.Publish(TopicEvent, ev)
}

// OnNotify subscribes fn to notifications.
func (b *Bus) OnNotify(fn func(Notification)) error {
	return b.bus.Subscribe(TopicNotify, fn)
}

// OnTx subscribes fn to history entries.
func (b *Bus) OnTx(fn func(PendingTransaction)) error {
	return b.bus.Subscribe(TopicTx, fn)
}

// OnEvent subscribes fn to contract events.
func (b *Bus) OnEvent(fn func(EventRecord)) error {
	return b.bus.Subscribe(TopicEvent, fn)
}

// Attach mirrors everything published on b into f. Only use it when the
// publishers run on the same goroutine that reads f (scripted commands).
func (b *Bus) Attach(f *Feed) error {
	if err := b.OnNotify(func(n Notification) { f.Notify(n) }); err != nil {
		return err
	}
	if err := b.OnTx(f.Record); err != nil {
		return err
	}
	return b.OnEvent(f.AddEvent)
}
