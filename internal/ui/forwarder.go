package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

// NotifyMsg carries a notification into the dapp screen.
type NotifyMsg feed.Notification

// TxMsg carries a new history entry into the dapp screen.
type TxMsg feed.PendingTransaction

// EventMsg carries a decoded contract event into the dapp screen.
type EventMsg feed.EventRecord

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Forward subscribes to bus and relays every record to s as a tea.Msg until
// ctx is done. Bus handlers only append to a queue; a separate goroutine
// drains it, so a slow or stopped program never stalls the publisher.
func Forward(ctx context.Context, bus *feed.Bus, s Sender) error {
	q := &msgQueue{wake: make(chan struct{}, 1), done: ctx.Done()}
	if err := bus.OnNotify(func(n feed.Notification) { q.push(NotifyMsg(n)) }); err != nil {
		return err
	}
	if err := bus.OnTx(func(t feed.PendingTransaction) { q.push(TxMsg(t)) }); err != nil {
		return err
	}
	if err := bus.OnEvent(func(e feed.EventRecord) { q.push(EventMsg(e)) }); err != nil {
		return err
	}
	go q.pump(s)
	return nil
}

type msgQueue struct {
	mu   sync.Mutex
	msgs []tea.Msg
	wake chan struct{}
	done <-chan struct{}
}

func (q *msgQueue) push(m tea.Msg) {
	select {
	case <-q.done:
		return
	default:
	}
	q.mu.Lock()
	q.msgs = append(q.msgs, m)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *msgQueue) drain() []tea.Msg {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.msgs
	q.msgs = nil
	return msgs
}

func (q *msgQueue) pump(s Sender) {
	for {
		select {
		case <-q.done:
			return
		case <-q.wake:
		}
		for _, m := range q.drain() {
			s.Send(m)
		}
	}
}
