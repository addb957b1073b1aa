package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

type call struct {
	method string
	value  *big.Int
	args   []interface{}
}

type fakeInvoker struct {
	mu        sync.Mutex
	calls     []call
	invokeErr error
	hash      common.Hash
	receipt   *types.Receipt
	waitErr   error
	block     chan struct{}
}

func (f *fakeInvoker) Invoke(_ context.Context, method string, value *big.Int, args ...interface{}) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method, value, args})
	if f.invokeErr != nil {
		return common.Hash{}, f.invokeErr
	}
	return f.hash, nil
}

func (f *fakeInvoker) WaitMined(ctx context.Context, _ common.Hash) (*types.Receipt, error) {
	if f.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.block:
		}
	}
	return f.receipt, f.waitErr
}

type recorder struct {
	notes []feed.Notification
	txs   []feed.PendingTransaction
}

func (r *recorder) Notify(level feed.Level, msg string) {
	r.notes = append(r.notes, feed.Notification{Level: level, Message: msg})
}
func (r *recorder) RecordTx(tx feed.PendingTransaction) { r.txs = append(r.txs, tx) }
func (r *recorder) RecordEvent(feed.EventRecord)        {}

func (r *recorder) levels() []feed.Level {
	out := make([]feed.Level, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Level
	}
	return out
}

func lookup(t *testing.T, fn string) action.Descriptor {
	t.Helper()
	d, err := action.Lookup(fn)
	require.NoError(t, err)
	return d
}

var testHash = common.HexToHash("0x9f2c5b1e0a7d4c3b2a1908f7e6d5c4b3a2918f7e6d5c4b3a2918f7e6d5c4b3a2")

func TestSubmitCreateTokenConfirmed(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, receipt: &types.Receipt{Status: 1, BlockNumber: big.NewInt(10)}}
	rec := &recorder{}
	s := NewSubmitter(inv, rec)

	res := s.Submit(context.Background(), lookup(t, "createToken"), map[string]string{
		"name": "Widget", "description": "desc", "value": "100", "validity": "30",
	})

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, testHash, res.Hash)

	require.Len(t, inv.calls, 1)
	c := inv.calls[0]
	assert.Equal(t, "createToken", c.method)
	assert.Nil(t, c.value)
	require.Len(t, c.args, 4)
	assert.Equal(t, "Widget", c.args[0])
	assert.Equal(t, "desc", c.args[1])
	assert.Equal(t, "100", c.args[2].(*big.Int).String())
	assert.Equal(t, "30", c.args[3].(*big.Int).String())

	require.Len(t, rec.txs, 1)
	assert.Equal(t, "createToken", rec.txs[0].Action)
	assert.Equal(t, testHash.Hex(), rec.txs[0].Hash)
	assert.Equal(t, []feed.Level{feed.LevelInfo, feed.LevelSuccess}, rec.levels())
}

func TestSubmitPayableCarriesWei(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, receipt: &types.Receipt{Status: 1}}
	s := NewSubmitter(inv, &recorder{})

	res := s.Submit(context.Background(), lookup(t, "purchaseToken"), map[string]string{"tokenId": "1", "value": "0.25"})
	require.NoError(t, res.Err)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, "250000000000000000", inv.calls[0].value.String())
	require.Len(t, inv.calls[0].args, 1)
	assert.Equal(t, "1", inv.calls[0].args[0].(*big.Int).String())
}

func TestSubmitPayableBlankValueIsZero(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, receipt: &types.Receipt{Status: 1}}
	s := NewSubmitter(inv, &recorder{})

	s.Submit(context.Background(), lookup(t, "purchaseToken"), map[string]string{"tokenId": "1"})
	require.Len(t, inv.calls, 1)
	assert.Equal(t, int64(0), inv.calls[0].value.Int64())
}

func TestSubmitConvertsEveryKind(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, receipt: &types.Receipt{Status: 1}}
	s := NewSubmitter(inv, &recorder{}, WithoutWait())

	to := "0x00000000000000000000000000000000000000aa"
	s.Submit(context.Background(), lookup(t, "transferToken"), map[string]string{"to": to, "tokenId": "2"})
	code := "0x" + fmt.Sprintf("%064x", 255)
	s.Submit(context.Background(), lookup(t, "burnToken"), map[string]string{"tokenId": "3", "redemptionCode": code})
	s.Submit(context.Background(), lookup(t, "attachCertificate"), map[string]string{"tokenId": "4", "certificate": "0xdead"})

	require.Len(t, inv.calls, 3)
	assert.Equal(t, common.HexToAddress(to), inv.calls[0].args[0])
	var want [32]byte
	want[31] = 0xff
	assert.Equal(t, want, inv.calls[1].args[1])
	assert.Equal(t, []byte{0xde, 0xad}, inv.calls[2].args[1])
}

func TestSubmitInvalidArgFailsWithoutSending(t *testing.T) {
	inv := &fakeInvoker{hash: testHash}
	rec := &recorder{}
	s := NewSubmitter(inv, rec)

	res := s.Submit(context.Background(), lookup(t, "transferToken"), map[string]string{"to": "0x1234", "tokenId": "1"})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)
	assert.Empty(t, inv.calls)
	assert.Empty(t, rec.txs)
	assert.Equal(t, []feed.Level{feed.LevelDanger}, rec.levels())
}

func TestSubmitSendFailure(t *testing.T) {
	inv := &fakeInvoker{invokeErr: errors.New("user rejected")}
	rec := &recorder{}
	s := NewSubmitter(inv, rec)

	res := s.Submit(context.Background(), lookup(t, "activateToken"), map[string]string{"tokenId": "1"})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, rec.txs)
	require.Len(t, rec.notes, 1)
	assert.Equal(t, feed.LevelDanger, rec.notes[0].Level)
	assert.Contains(t, rec.notes[0].Message, "user rejected")
	assert.Len(t, inv.calls, 1)
}

func TestSubmitReverted(t *testing.T) {
	inv := &fakeInvoker{
		hash:    testHash,
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed},
		waitErr: fmt.Errorf("%w (hash: x)", contract.ErrReverted),
	}
	rec := &recorder{}
	s := NewSubmitter(inv, rec)

	res := s.Submit(context.Background(), lookup(t, "activateToken"), map[string]string{"tokenId": "1"})
	assert.Equal(t, OutcomeReverted, res.Outcome)
	assert.ErrorIs(t, res.Err, contract.ErrReverted)
	assert.Len(t, rec.txs, 1)
	assert.Equal(t, []feed.Level{feed.LevelInfo, feed.LevelDanger}, rec.levels())
}

func TestSubmitConfirmTimeoutStaysPending(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, block: make(chan struct{})}
	rec := &recorder{}
	s := NewSubmitter(inv, rec, WithConfirmTimeout(10*time.Millisecond))

	res := s.Submit(context.Background(), lookup(t, "activateToken"), map[string]string{"tokenId": "1"})
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Len(t, rec.txs, 1)
	assert.Equal(t, []feed.Level{feed.LevelInfo, feed.LevelDanger}, rec.levels())
}

func TestSubmitWithoutWait(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, block: make(chan struct{})}
	rec := &recorder{}
	s := NewSubmitter(inv, rec, WithoutWait())

	res := s.Submit(context.Background(), lookup(t, "activateToken"), map[string]string{"tokenId": "1"})
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, []feed.Level{feed.LevelInfo}, rec.levels())
}

func TestSubmitNeverRetries(t *testing.T) {
	inv := &fakeInvoker{invokeErr: errors.New("nonce too low")}
	s := NewSubmitter(inv, &recorder{})
	s.Submit(context.Background(), lookup(t, "redemptionRequest"), map[string]string{"tokenId": "1"})
	assert.Len(t, inv.calls, 1)
}

func TestHistoryIsNotDeduplicated(t *testing.T) {
	inv := &fakeInvoker{hash: testHash, receipt: &types.Receipt{Status: 1}}
	rec := &recorder{}
	s := NewSubmitter(inv, rec)
	d := lookup(t, "activateToken")
	s.Submit(context.Background(), d, map[string]string{"tokenId": "1"})
	s.Submit(context.Background(), d, map[string]string{"tokenId": "1"})
	assert.Len(t, rec.txs, 2)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "pending", OutcomePending.String())
	assert.Equal(t, "confirmed", OutcomeConfirmed.String())
	assert.Equal(t, "reverted", OutcomeReverted.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

var _ Invoker = (*contract.Handle)(nil)
