// Package tx turns a filled-in action form into a signed contract call and
// follows it to a receipt.
package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

// DefaultConfirmTimeout bounds the wait for a receipt.
const DefaultConfirmTimeout = 5 * time.Minute

// Invoker sends contract calls and waits for them. *contract.Handle
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, method string, value *big.Int, args ...interface{}) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Outcome is how far a submission got.
type Outcome int

const (
	// OutcomeFailed means nothing reached the chain.
	OutcomeFailed Outcome = iota
	// OutcomePending means the call was accepted but no receipt is known yet.
	OutcomePending
	OutcomeConfirmed
	OutcomeReverted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomePending:
		return "pending"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeReverted:
		return "reverted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result describes one submission.
type Result struct {
	Action  string
	Hash    common.Hash
	Outcome Outcome
	Receipt *types.Receipt
	Err     error
}

// Submitter sends actions. Submissions are independent: each call of Submit
// runs on its own and nothing is retried.
type Submitter struct {
	inv     Invoker
	pub     feed.Publisher
	log     *zap.Logger
	timeout time.Duration
	wait    bool
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithConfirmTimeout bounds the receipt wait. Zero or less means
// DefaultConfirmTimeout.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Submitter) { s.log = l }
}

// WithoutWait makes Submit return as soon as the call is accepted.
func WithoutWait() Option {
	return func(s *Submitter) { s.wait = false }
}

// NewSubmitter creates a Submitter reporting through pub.
func NewSubmitter(inv Invoker, pub feed.Publisher, opts ...Option) *Submitter {
	s := &Submitter{
		inv:     inv,
		pub:     pub,
		log:     zap.NewNop(),
		timeout: DefaultConfirmTimeout,
		wait:    true,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit converts values for d, sends the call and, unless configured not
// to, waits for its receipt. Every stage is reported through the publisher:
// a history entry as soon as the node accepts the call, then a success or
// danger notification.
func (s *Submitter) Submit(ctx context.Context, d action.Descriptor, values map[string]string) Result {
	res := Result{Action: d.Function}
	log := s.log.With(zap.String("action", d.Function))

	args, err := action.Args(d, values)
	if err != nil {
		return s.fail(log, res, err)
	}
	value, err := action.Value(d, values)
	if err != nil {
		return s.fail(log, res, fmt.Errorf("param %s: %w", action.ValueParam, err))
	}

	hash, err := s.inv.Invoke(ctx, d.Function, value, args...)
	if err != nil {
		return s.fail(log, res, err)
	}
	res.Hash = hash
	res.Outcome = OutcomePending
	log.Info("transaction sent", zap.String("hash", hash.Hex()))
	s.pub.RecordTx(feed.PendingTransaction{Action: d.Function, Hash: hash.Hex()})
	s.pub.Notify(feed.LevelInfo, fmt.Sprintf("%s transaction sent.", d.Function))

	if !s.wait {
		return res
	}

	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	receipt, err := s.inv.WaitMined(wctx, hash)
	res.Receipt = receipt
	switch {
	case err == nil:
		res.Outcome = OutcomeConfirmed
		log.Info("transaction confirmed", zap.String("hash", hash.Hex()), zap.Uint64("block", blockOf(receipt)))
		s.pub.Notify(feed.LevelSuccess, fmt.Sprintf("%s confirmed.", d.Function))
	case errors.Is(err, contract.ErrReverted):
		res.Outcome = OutcomeReverted
		res.Err = err
		log.Warn("transaction reverted", zap.String("hash", hash.Hex()))
		s.pub.Notify(feed.LevelDanger, fmt.Sprintf("Error confirming %s: transaction reverted.", d.Function))
	default:
		res.Err = err
		log.Warn("confirmation failed", zap.String("hash", hash.Hex()), zap.Error(err))
		s.pub.Notify(feed.LevelDanger, fmt.Sprintf("Error confirming %s: %v", d.Function, err))
	}
	return res
}

func (s *Submitter) fail(log *zap.Logger, res Result, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	log.Warn("send failed", zap.Error(err))
	s.pub.Notify(feed.LevelDanger, fmt.Sprintf("Error sending %s: %v", res.Action, err))
	return res
}

func blockOf(r *types.Receipt) uint64 {
	if r == nil || r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
