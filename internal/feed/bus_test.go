package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFansOutToSubscribers(t *testing.T) {
	b := NewBus()
	b.now = func() time.Time { return t0 }

	var notes []Notification
	var txs []PendingTransaction
	var events []EventRecord
	require.NoError(t, b.OnNotify(func(n Notification) { notes = append(notes, n) }))
	require.NoError(t, b.OnTx(func(tx PendingTransaction) { txs = append(txs, tx) }))
	require.NoError(t, b.OnEvent(func(ev EventRecord) { events = append(events, ev) }))

	b.Notify(LevelSuccess, "done")
	b.RecordTx(PendingTransaction{Action: "activateToken", Hash: "0xabc"})
	b.RecordEvent(EventRecord{EventName: "TokenActivated", Args: []string{"1"}})

	require.Len(t, notes, 1)
	assert.Equal(t, "done", notes[0].Message)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, t0, notes[0].At)

	require.Len(t, txs, 1)
	assert.Equal(t, t0, txs[0].At, "zero timestamps are stamped by the bus")

	require.Len(t, events, 1)
	assert.Equal(t, []string{"1"}, events[0].Args)
}

func TestBusAttachMirrorsIntoFeed(t *testing.T) {
	b := NewBus()
	f := New(ModeExpire, time.Minute)
	require.NoError(t, b.Attach(f))

	b.Notify(LevelInfo, "Transaction sent.")
	b.RecordTx(PendingTransaction{Action: "createToken", Hash: "0x1"})
	b.RecordEvent(EventRecord{EventName: "TokenCreated"})

	assert.Len(t, f.Notifications(), 1)
	assert.Len(t, f.History(), 1)
	assert.Len(t, f.Events(), 1)
}
