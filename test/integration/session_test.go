package integration_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/bridge"
	"github.com/Mohsinsiddi/assetcli/internal/chain"
	"github.com/Mohsinsiddi/assetcli/internal/config"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
	"github.com/Mohsinsiddi/assetcli/internal/rpc"
	"github.com/Mohsinsiddi/assetcli/internal/tx"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
	"github.com/Mohsinsiddi/assetcli/test/fixtures"
)

// Hardhat/Anvil account #0. Never fund on mainnet.
const (
	devKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var contractAddr = common.HexToAddress(config.DefaultContract)

func connect(t *testing.T, node *fixtures.Node, readOnly bool) *chain.Session {
	t.Helper()
	opts := chain.Options{
		RPCURLs:  []string{node.URL},
		ChainID:  config.SepoliaChainID,
		Contract: contractAddr,
		ReadOnly: readOnly,
		Logger:   zaptest.NewLogger(t),
	}
	if !readOnly {
		m := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeyStore(wallet.NewInMemoryKeystore()))
		require.NoError(t, m.AddWithKey("dev", devKey))
		opts.Wallets = m
		opts.WalletName = "dev"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, err := chain.Connect(ctx, opts)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestReadTokenOverRPC(t *testing.T) {
	node := fixtures.NewNode(t, 100)
	owner := common.HexToAddress(devAddr)
	node.SetCall(t, "tokens", "Gold bar", "1kg, vault 7", big.NewInt(5000), uint8(1), owner)
	node.SetCall(t, "tokenSellingPrice", big.NewInt(1_500_000_000_000_000_000))

	sess := connect(t, node, true)
	assert.True(t, sess.ReadOnly())
	assert.Equal(t, chain.Sepolia.Name, sess.Network.Name)

	ctx := context.Background()
	info, err := sess.Handle.Token(ctx, big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, "Gold bar", info.Name)
	assert.Equal(t, "1kg, vault 7", info.Description)
	assert.Equal(t, "5000", info.InitialValue.String())
	assert.Equal(t, uint8(1), info.State)
	assert.Equal(t, owner, info.Owner)

	price, err := sess.Handle.SellingPrice(ctx, big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, "1.5", action.FormatEther(price))
}

func TestConnectRejectsWrongNetwork(t *testing.T) {
	node := fixtures.NewNode(t, 100)
	node.SetChainID(1)

	_, err := chain.Connect(context.Background(), chain.Options{
		RPCURLs:  []string{node.URL},
		ChainID:  config.SepoliaChainID,
		Contract: contractAddr,
		ReadOnly: true,
	})
	require.ErrorIs(t, err, chain.ErrWrongNetwork)
	assert.Contains(t, err.Error(), "Switch to Sepolia")
	assert.Contains(t, err.Error(), "Ethereum")
}

func TestReconnectsRotateWithSharedPicker(t *testing.T) {
	a, b := fixtures.NewNode(t, 100), fixtures.NewNode(t, 100)
	picker := rpc.NewPicker(rpc.AlgorithmRoundRobin)

	var got []string
	for range 3 {
		sess, err := chain.Connect(context.Background(), chain.Options{
			RPCURLs:  []string{a.URL, b.URL},
			Picker:   picker,
			ChainID:  config.SepoliaChainID,
			Contract: contractAddr,
			ReadOnly: true,
		})
		require.NoError(t, err)
		got = append(got, sess.RPCURL)
		sess.Close()
	}
	assert.Equal(t, []string{a.URL, b.URL, a.URL}, got)
}

func TestQueryDecodesContractEvents(t *testing.T) {
	node := fixtures.NewNode(t, 120)
	owner := common.HexToAddress(devAddr)
	node.AddLog(fixtures.EventLog(t, contractAddr, 101, "TokenCreated",
		big.NewInt(7), "Gold bar", "1kg", big.NewInt(5000), owner))
	node.AddLog(fixtures.EventLog(t, contractAddr, 110, "TokenPurchased",
		big.NewInt(7), owner, big.NewInt(42)))
	node.AddLog(fixtures.EventLog(t, contractAddr, 90, "RedemptionRequested",
		big.NewInt(7), owner))

	sess := connect(t, node, true)
	b := bridge.New(sess.Client, sess.Handle, 0, zaptest.NewLogger(t))

	events, err := b.Query(context.Background(), nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "TokenCreated", events[0].EventName)
	assert.Equal(t, []string{"7", "Gold bar", "1kg", "5000", owner.Hex()}, events[0].Args)
	assert.Equal(t, uint64(101), events[0].Block)

	assert.Equal(t, "TokenPurchased", events[1].EventName)
	assert.Equal(t, []string{"7", owner.Hex(), "42"}, events[1].Args)
}

type recorder struct {
	txs    []feed.PendingTransaction
	levels []feed.Level
}

func (r *recorder) Notify(level feed.Level, _ string)  { r.levels = append(r.levels, level) }
func (r *recorder) RecordTx(p feed.PendingTransaction) { r.txs = append(r.txs, p) }
func (r *recorder) RecordEvent(feed.EventRecord)       {}

func submit(t *testing.T, sess *chain.Session, pub feed.Publisher, function string, values map[string]string) tx.Result {
	t.Helper()
	d, err := action.Lookup(function)
	require.NoError(t, err)
	sess.Handle.SetPollInterval(10 * time.Millisecond)
	s := tx.NewSubmitter(sess.Handle, pub, tx.WithConfirmTimeout(5*time.Second), tx.WithLogger(zaptest.NewLogger(t)))
	return s.Submit(context.Background(), d, values)
}

func TestSubmitSignsAndConfirms(t *testing.T) {
	node := fixtures.NewNode(t, 200)
	sess := connect(t, node, false)
	assert.Equal(t, devAddr, sess.Account().Hex())

	rec := &recorder{}
	res := submit(t, sess, rec, "purchaseToken", map[string]string{"tokenId": "7", "value": "0.25"})
	require.NoError(t, res.Err)
	assert.Equal(t, tx.OutcomeConfirmed, res.Outcome)
	assert.Equal(t, uint64(200), res.Receipt.BlockNumber.Uint64())

	sent := node.Sent()
	require.Len(t, sent, 1)
	got := sent[0]
	assert.Equal(t, res.Hash, got.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), got.Type())
	assert.Equal(t, contractAddr, *got.To())
	assert.Equal(t, "250000000000000000", got.Value().String())
	assert.Equal(t, uint64(72_000), got.Gas())
	// 2 × base fee + tip
	assert.Equal(t, "3500000000", got.GasFeeCap().String())

	from, err := types.Sender(types.LatestSignerForChainID(got.ChainId()), got)
	require.NoError(t, err)
	assert.Equal(t, devAddr, from.Hex())

	parsed, err := contract.ParsedABI()
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods["purchaseToken"].ID, got.Data()[:4])

	require.Len(t, rec.txs, 1)
	assert.Equal(t, "purchaseToken", rec.txs[0].Action)
	assert.Equal(t, []feed.Level{feed.LevelInfo, feed.LevelSuccess}, rec.levels)
}

func TestSubmitReportsRevert(t *testing.T) {
	node := fixtures.NewNode(t, 200)
	sess := connect(t, node, false)

	rev := &revertingPublisher{recorder: &recorder{}, node: node}
	res := submit(t, sess, rev, "activateToken", map[string]string{"tokenId": "7"})

	assert.Equal(t, tx.OutcomeReverted, res.Outcome)
	require.ErrorIs(t, res.Err, contract.ErrReverted)
	require.Len(t, rev.txs, 1)
	assert.Equal(t, []feed.Level{feed.LevelInfo, feed.LevelDanger}, rev.levels)
}

// revertingPublisher marks each recorded transaction as reverted before the
// submitter starts polling for its receipt.
type revertingPublisher struct {
	*recorder
	node *fixtures.Node
}

func (p *revertingPublisher) RecordTx(pt feed.PendingTransaction) {
	p.node.Revert(common.HexToHash(pt.Hash))
	p.recorder.RecordTx(pt)
}

func TestReadOnlySessionCannotSend(t *testing.T) {
	node := fixtures.NewNode(t, 50)
	sess := connect(t, node, true)

	rec := &recorder{}
	res := submit(t, sess, rec, "activateToken", map[string]string{"tokenId": "1"})
	assert.Equal(t, tx.OutcomeFailed, res.Outcome)
	require.ErrorIs(t, res.Err, contract.ErrReadOnly)
	assert.Empty(t, node.Sent())
	assert.Equal(t, []feed.Level{feed.LevelDanger}, rec.levels)
}
