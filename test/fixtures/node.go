// Package fixtures runs a scripted JSON-RPC node for integration and e2e
// tests. It answers the calls a session makes against the asset contract.
package fixtures

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/assetcli/internal/contract"
)

// SepoliaChainID is what the node reports unless told otherwise.
const SepoliaChainID = 11155111

// Node is a fake Ethereum node. Fields may be changed between requests
// only through its methods.
type Node struct {
	URL string

	mu       sync.Mutex
	chainID  uint64
	head     uint64
	baseFee  *big.Int
	calls    map[string][]byte // 4-byte selector hex → return data
	logs     []types.Log
	sent     []*types.Transaction
	reverted map[common.Hash]bool
	methods  []string
}

// NewNode starts a node on Sepolia at block head. It is closed when the
// test ends.
func NewNode(t *testing.T, head uint64) *Node {
	t.Helper()
	n := &Node{
		chainID:  SepoliaChainID,
		head:     head,
		baseFee:  big.NewInt(1_000_000_000),
		calls:    make(map[string][]byte),
		reverted: make(map[common.Hash]bool),
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	n.URL = srv.URL
	return n
}

// SetChainID changes the chain the node reports.
func (n *Node) SetChainID(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chainID = id
}

// SetHead moves the head block.
func (n *Node) SetHead(h uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.head = h
}

// SetCall makes eth_call for method return the ABI-packed outputs.
func (n *Node) SetCall(t *testing.T, method string, outputs ...interface{}) {
	t.Helper()
	parsed, err := contract.ParsedABI()
	require.NoError(t, err)
	m, ok := parsed.Methods[method]
	require.True(t, ok, "unknown method %s", method)
	data, err := m.Outputs.Pack(outputs...)
	require.NoError(t, err)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[hexutil.Encode(m.ID)] = data
}

// AddLog makes lg visible to eth_getLogs.
func (n *Node) AddLog(lg types.Log) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, lg)
}

// Revert makes the receipt of hash report failure.
func (n *Node) Revert(hash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reverted[hash] = true
}

// Sent returns the raw transactions the node accepted.
func (n *Node) Sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// Methods returns every RPC method called, in order.
func (n *Node) Methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...)
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, rerr := n.handle(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (n *Node) handle(req request) (interface{}, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods = append(n.methods, req.Method)

	switch req.Method {
	case "eth_chainId":
		return hexutil.Uint64(n.chainID), nil
	case "eth_blockNumber":
		return hexutil.Uint64(n.head), nil
	case "eth_maxPriorityFeePerGas":
		return (*hexutil.Big)(big.NewInt(1_500_000_000)), nil
	case "eth_estimateGas":
		return hexutil.Uint64(60_000), nil
	case "eth_getTransactionCount":
		return hexutil.Uint64(len(n.sent)), nil
	case "eth_getBlockByNumber":
		return &types.Header{
			Number:     new(big.Int).SetUint64(n.head),
			Difficulty: new(big.Int),
			GasLimit:   30_000_000,
			BaseFee:    n.baseFee,
		}, nil
	case "eth_call":
		return n.call(req.Params)
	case "eth_getLogs":
		return n.getLogs(req.Params)
	case "eth_sendRawTransaction":
		return n.sendRaw(req.Params)
	case "eth_getTransactionReceipt":
		return n.receipt(req.Params)
	}
	return nil, &rpcError{Code: -32601, Message: "method not found: " + req.Method}
}

func (n *Node) call(params []json.RawMessage) (interface{}, *rpcError) {
	var msg struct {
		Data  hexutil.Bytes `json:"data"`
		Input hexutil.Bytes `json:"input"`
	}
	if len(params) == 0 || json.Unmarshal(params[0], &msg) != nil {
		return nil, &rpcError{Code: -32602, Message: "bad call params"}
	}
	data := msg.Input
	if len(data) == 0 {
		data = msg.Data
	}
	if len(data) < 4 {
		return nil, &rpcError{Code: 3, Message: "execution reverted"}
	}
	out, ok := n.calls[hexutil.Encode(data[:4])]
	if !ok {
		return nil, &rpcError{Code: 3, Message: "execution reverted"}
	}
	return hexutil.Bytes(out), nil
}

func (n *Node) getLogs(params []json.RawMessage) (interface{}, *rpcError) {
	var q struct {
		FromBlock string `json:"fromBlock"`
		ToBlock   string `json:"toBlock"`
	}
	if len(params) == 0 || json.Unmarshal(params[0], &q) != nil {
		return nil, &rpcError{Code: -32602, Message: "bad filter"}
	}
	from, to := n.blockParam(q.FromBlock, 0), n.blockParam(q.ToBlock, n.head)
	out := []types.Log{}
	for _, lg := range n.logs {
		if lg.BlockNumber >= from && lg.BlockNumber <= to {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (n *Node) blockParam(s string, def uint64) uint64 {
	switch s {
	case "", "latest", "pending", "safe", "finalized":
		if s == "" {
			return def
		}
		return n.head
	case "earliest":
		return 0
	}
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return def
	}
	return v
}

func (n *Node) sendRaw(params []json.RawMessage) (interface{}, *rpcError) {
	var raw hexutil.Bytes
	if len(params) == 0 || json.Unmarshal(params[0], &raw) != nil {
		return nil, &rpcError{Code: -32602, Message: "bad raw tx"}
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}
	if tx.ChainId().Uint64() != n.chainID {
		return nil, &rpcError{Code: -32000, Message: fmt.Sprintf("invalid chain id %s", tx.ChainId())}
	}
	n.sent = append(n.sent, tx)
	return tx.Hash(), nil
}

func (n *Node) receipt(params []json.RawMessage) (interface{}, *rpcError) {
	var hash common.Hash
	if len(params) == 0 || json.Unmarshal(params[0], &hash) != nil {
		return nil, &rpcError{Code: -32602, Message: "bad hash"}
	}
	for i, tx := range n.sent {
		if tx.Hash() != hash {
			continue
		}
		status := types.ReceiptStatusSuccessful
		if n.reverted[hash] {
			status = types.ReceiptStatusFailed
		}
		return &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			CumulativeGasUsed: 50_000,
			Logs:              []*types.Log{},
			TxHash:            hash,
			GasUsed:           50_000,
			EffectiveGasPrice: big.NewInt(2_000_000_000),
			BlockHash:         common.BigToHash(big.NewInt(int64(n.head))),
			BlockNumber:       new(big.Int).SetUint64(n.head),
			TransactionIndex:  uint(i),
		}, nil
	}
	// Unknown hashes are still pending.
	return nil, nil
}

// EventLog builds a log of the contract event name, splitting values into
// indexed topics and packed data the way the compiler would.
func EventLog(t *testing.T, address common.Address, block uint64, name string, values ...interface{}) types.Log {
	t.Helper()
	parsed, err := contract.ParsedABI()
	require.NoError(t, err)
	ev, ok := parsed.Events[name]
	require.True(t, ok, "unknown event %s", name)
	require.Len(t, values, len(ev.Inputs))

	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, in := range ev.Inputs {
		if !in.Indexed {
			data = append(data, values[i])
			continue
		}
		switch v := values[i].(type) {
		case *big.Int:
			topics = append(topics, common.BigToHash(v))
		case common.Address:
			topics = append(topics, common.BytesToHash(v.Bytes()))
		default:
			t.Fatalf("unsupported indexed type %T", v)
		}
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)

	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        packed,
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte(strings.ToLower(fmt.Sprintf("%s-%d", name, block)))),
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block)),
	}
}
