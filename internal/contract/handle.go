package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

var (
	ErrReadOnly     = errors.New("contract handle has no signer")
	ErrReverted     = errors.New("transaction reverted")
	ErrUnknownEvent = errors.New("unknown event")
)

// DefaultPollInterval is how often WaitMined asks for a receipt.
const DefaultPollInterval = 2 * time.Second

// Backend is the subset of *ethclient.Client the handle needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// TxSigner signs transactions on behalf of one account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

var (
	parseOnce sync.Once
	parsed    abi.ABI
	parseErr  error
)

// ParsedABI returns AssetABI parsed once.
func ParsedABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsed, parseErr = abi.JSON(strings.NewReader(AssetABI))
	})
	return parsed, parseErr
}

// Handle is a contract bound to an address, a backend and an optional signer.
type Handle struct {
	backend      Backend
	address      common.Address
	chainID      *big.Int
	signer       TxSigner
	abi          abi.ABI
	pollInterval time.Duration
}

// NewHandle binds the asset contract at address. A nil signer gives a
// read-only handle.
func NewHandle(backend Backend, address common.Address, chainID *big.Int, signer TxSigner) (*Handle, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	return &Handle{
		backend:      backend,
		address:      address,
		chainID:      new(big.Int).Set(chainID),
		signer:       signer,
		abi:          parsed,
		pollInterval: DefaultPollInterval,
	}, nil
}

// SetPollInterval changes the receipt polling interval.
func (h *Handle) SetPollInterval(d time.Duration) { h.pollInterval = d }

// Address returns the bound contract address.
func (h *Handle) Address() common.Address { return h.address }

// ABI returns the parsed contract interface.
func (h *Handle) ABI() abi.ABI { return h.abi }

// From returns the signing account, or the zero address for a read-only handle.
func (h *Handle) From() common.Address {
	if h.signer == nil {
		return common.Address{}
	}
	return h.signer.Address()
}

// Invoke packs method with args, signs a dynamic-fee transaction carrying
// value (nil for none) and broadcasts it. The returned hash identifies the
// accepted transaction.
func (h *Handle) Invoke(ctx context.Context, method string, value *big.Int, args ...interface{}) (common.Hash, error) {
	if h.signer == nil {
		return common.Hash{}, ErrReadOnly
	}
	data, err := h.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}

	from := h.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &h.address, Value: value, Data: data}

	gas, err := h.backend.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
	}
	gas += gas / 5

	tip, err := h.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas tip: %w", err)
	}
	head, err := h.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting head block: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	} else {
		feeCap.Mul(feeCap, big.NewInt(2))
	}

	nonce, err := h.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   h.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &h.address,
		Value:     value,
		Data:      data,
	})

	signed, err := h.signer.SignTx(tx, h.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}
	if err := h.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed.Hash(), nil
}

// WaitMined polls for the receipt of hash until it is mined or ctx ends.
// A receipt with failed status is returned together with ErrReverted.
func (h *Handle) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := h.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("getting receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Call runs a read-only method against the latest block.
func (h *Handle) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := h.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := h.backend.CallContract(ctx, ethereum.CallMsg{From: h.From(), To: &h.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	res, err := h.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return res, nil
}

// EventIDs maps event names to their topic hashes.
func (h *Handle) EventIDs(names []string) ([]common.Hash, error) {
	ids := make([]common.Hash, 0, len(names))
	for _, name := range names {
		ev, ok := h.abi.Events[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
		}
		ids = append(ids, ev.ID)
	}
	return ids, nil
}

// DecodeEvent turns a raw log of this contract into an EventRecord whose
// Args follow the event's declared input order.
func (h *Handle) DecodeEvent(lg types.Log) (feed.EventRecord, error) {
	if len(lg.Topics) == 0 {
		return feed.EventRecord{}, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}
	ev, err := h.abi.EventByID(lg.Topics[0])
	if err != nil {
		return feed.EventRecord{}, fmt.Errorf("%w: %s", ErrUnknownEvent, lg.Topics[0].Hex())
	}

	values := make(map[string]interface{}, len(ev.Inputs))
	if len(lg.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(values, lg.Data); err != nil {
			return feed.EventRecord{}, fmt.Errorf("decoding %s data: %w", ev.Name, err)
		}
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, lg.Topics[1:]); err != nil {
		return feed.EventRecord{}, fmt.Errorf("decoding %s topics: %w", ev.Name, err)
	}

	args := make([]string, len(ev.Inputs))
	for i, in := range ev.Inputs {
		args[i] = FormatValue(values[in.Name])
	}
	return feed.EventRecord{
		EventName: ev.Name,
		Args:      args,
		TxHash:    lg.TxHash.Hex(),
		Block:     lg.BlockNumber,
	}, nil
}

// FormatValue renders a decoded ABI value for display.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case [32]byte:
		return hexutil.Encode(x[:])
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
