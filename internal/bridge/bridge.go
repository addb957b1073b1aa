// Package bridge delivers decoded contract events by polling eth_getLogs.
package bridge

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

// DefaultInterval is the log polling period.
const DefaultInterval = 4 * time.Second

// LogSource is the chain side of the bridge. *ethclient.Client satisfies it.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Decoder knows the contract's events. *contract.Handle satisfies it.
type Decoder interface {
	Address() common.Address
	EventIDs(names []string) ([]common.Hash, error)
	DecodeEvent(lg types.Log) (feed.EventRecord, error)
}

// Bridge turns contract logs into EventRecords.
type Bridge struct {
	src      LogSource
	dec      Decoder
	interval time.Duration
	log      *zap.Logger
}

// New creates a bridge. A zero interval means DefaultInterval and a nil
// logger discards output.
func New(src LogSource, dec Decoder, interval time.Duration, log *zap.Logger) *Bridge {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{src: src, dec: dec, interval: interval, log: log}
}

func (b *Bridge) query(names []string, from, to uint64) (ethereum.FilterQuery, error) {
	ids, err := b.dec.EventIDs(names)
	if err != nil {
		return ethereum.FilterQuery{}, err
	}
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{b.dec.Address()},
		Topics:    [][]common.Hash{ids},
	}, nil
}

// Query returns the named events between from and to inclusive, oldest
// first. A to of zero means the current head.
func (b *Bridge) Query(ctx context.Context, names []string, from, to uint64) ([]feed.EventRecord, error) {
	if to == 0 {
		head, err := b.src.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting head block: %w", err)
		}
		to = head
	}
	if from > to {
		return nil, nil
	}
	q, err := b.query(names, from, to)
	if err != nil {
		return nil, err
	}
	logs, err := b.src.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filtering logs: %w", err)
	}
	return b.decodeAll(logs), nil
}

// Subscribe delivers every named event emitted after the current head to
// onEvent, one call per log in node delivery order, until ctx ends. It
// returns once ctx is done; the error is nil in that case. Lookup errors
// are returned before polling starts.
func (b *Bridge) Subscribe(ctx context.Context, names []string, onEvent func(feed.EventRecord)) error {
	if _, err := b.dec.EventIDs(names); err != nil {
		return err
	}
	head, err := b.src.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("getting head block: %w", err)
	}
	next := head + 1
	b.log.Debug("event bridge anchored", zap.Uint64("block", head), zap.Strings("events", names))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		head, err := b.src.BlockNumber(ctx)
		if err != nil {
			b.log.Warn("event poll: head", zap.Error(err))
			continue
		}
		if head < next {
			continue
		}
		q, err := b.query(names, next, head)
		if err != nil {
			return err
		}
		logs, err := b.src.FilterLogs(ctx, q)
		if err != nil {
			b.log.Warn("event poll: logs", zap.Error(err), zap.Uint64("from", next), zap.Uint64("to", head))
			continue
		}
		for _, rec := range b.decodeAll(logs) {
			onEvent(rec)
		}
		next = head + 1
	}
}

func (b *Bridge) decodeAll(logs []types.Log) []feed.EventRecord {
	out := make([]feed.EventRecord, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		rec, err := b.dec.DecodeEvent(lg)
		if err != nil {
			b.log.Debug("skipping undecodable log", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}
