package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

// Hardhat/Anvil account #0. Never fund on mainnet.
const (
	testKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var testContract = common.HexToAddress("0x03F3C923eE87b89572849CACDb3e619292F618a7")

// fakeClient only answers eth_chainId; the rest of the backend is unused here.
type fakeClient struct {
	mu      sync.Mutex
	chainID int64
	idErr   error
	closed  bool
}

func (c *fakeClient) setChainID(id int64) {
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
}

func (c *fakeClient) ChainID(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idErr != nil {
		return nil, c.idErr
	}
	return big.NewInt(c.chainID), nil
}
func (c *fakeClient) Close() { c.closed = true }

func (c *fakeClient) BlockNumber(context.Context) (uint64, error) { return 0, nil }
func (c *fakeClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}
func (c *fakeClient) SuggestGasTipCap(context.Context) (*big.Int, error) { return nil, nil }
func (c *fakeClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, nil
}
func (c *fakeClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) { return 0, nil }
func (c *fakeClient) SendTransaction(context.Context, *types.Transaction) error     { return nil }
func (c *fakeClient) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}
func (c *fakeClient) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}
func (c *fakeClient) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func options(t *testing.T, client *fakeClient, mgr *wallet.Manager) Options {
	t.Helper()
	return Options{
		RPCURLs:  []string{"http://node.invalid"},
		ChainID:  Sepolia.ChainID,
		Contract: testContract,
		Wallets:  mgr,
		Dial: func(_ context.Context, url string) (Client, error) {
			assert.Equal(t, "http://node.invalid", url)
			return client, nil
		},
	}
}

func signingManager(t *testing.T) *wallet.Manager {
	t.Helper()
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("vendor", testKey))
	return mgr
}

func TestConnect(t *testing.T) {
	client := &fakeClient{chainID: Sepolia.ChainID}
	s, err := Connect(context.Background(), options(t, client, signingManager(t)))
	require.NoError(t, err)

	assert.Equal(t, "vendor", s.Wallet.Name)
	assert.Equal(t, testAddr, s.Account().Hex())
	assert.Equal(t, Sepolia, s.Network)
	assert.Equal(t, testContract, s.Handle.Address())
	assert.Equal(t, s.Account(), s.Handle.From())
	assert.False(t, client.closed)

	s.Close()
	assert.True(t, client.closed)
}

func TestConnectNoWallet(t *testing.T) {
	client := &fakeClient{chainID: Sepolia.ChainID}

	_, err := Connect(context.Background(), options(t, client, wallet.NewManager()))
	assert.ErrorIs(t, err, ErrNoWallet)

	_, err = Connect(context.Background(), options(t, client, nil))
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestConnectReadOnlySkipsWallet(t *testing.T) {
	opts := options(t, &fakeClient{chainID: Sepolia.ChainID}, nil)
	opts.ReadOnly = true
	s, err := Connect(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, s.ReadOnly())
	assert.Empty(t, s.WalletName())
	assert.Equal(t, common.Address{}, s.Account())
	_, err = s.Handle.Invoke(context.Background(), "activateToken", nil, big.NewInt(1))
	assert.ErrorIs(t, err, contract.ErrReadOnly)
}

func TestConnectNamedWallet(t *testing.T) {
	mgr := signingManager(t)
	_, err := mgr.Generate("trader")
	require.NoError(t, err)

	opts := options(t, &fakeClient{chainID: Sepolia.ChainID}, mgr)
	opts.WalletName = "trader"
	s, err := Connect(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "trader", s.Wallet.Name)

	opts.WalletName = "ghost"
	_, err = Connect(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestConnectWatchOnlyIsNoWallet(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.Add("watcher", testAddr))

	_, err := Connect(context.Background(), options(t, &fakeClient{chainID: Sepolia.ChainID}, mgr))
	require.ErrorIs(t, err, ErrNoWallet)
	assert.Contains(t, err.Error(), "watch-only")
}

func TestConnectWrongNetwork(t *testing.T) {
	client := &fakeClient{chainID: 1}
	_, err := Connect(context.Background(), options(t, client, signingManager(t)))

	require.ErrorIs(t, err, ErrWrongNetwork)
	var wn *WrongNetworkError
	require.ErrorAs(t, err, &wn)
	assert.Equal(t, int64(1), wn.Got.ChainID)
	assert.Contains(t, err.Error(), "Wrong network. Switch to Sepolia.")
	assert.True(t, client.closed, "no handle is built on the wrong network")
}

func TestConnectDialAndChainIDErrors(t *testing.T) {
	opts := options(t, nil, signingManager(t))
	opts.Dial = func(context.Context, string) (Client, error) { return nil, errors.New("refused") }
	_, err := Connect(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")

	client := &fakeClient{idErr: errors.New("timeout")}
	_, err = Connect(context.Background(), options(t, client, signingManager(t)))
	require.Error(t, err)
	assert.True(t, client.closed)
}

func TestConnectNoRPCs(t *testing.T) {
	opts := options(t, &fakeClient{chainID: Sepolia.ChainID}, signingManager(t))
	opts.RPCURLs = nil
	_, err := Connect(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selecting rpc")
}

func connected(t *testing.T, client *fakeClient) *Session {
	t.Helper()
	s, err := Connect(context.Background(), options(t, client, signingManager(t)))
	require.NoError(t, err)
	return s
}

func TestWatchChainChange(t *testing.T) {
	client := &fakeClient{chainID: Sepolia.ChainID}
	s := connected(t, client)

	go func() {
		time.Sleep(10 * time.Millisecond)
		client.setChainID(1)
	}()
	err := s.Watch(context.Background(), time.Millisecond, nil)
	require.ErrorIs(t, err, ErrSessionReset)
	assert.Contains(t, err.Error(), "Ethereum")
}

func TestWatchAccountChange(t *testing.T) {
	s := connected(t, &fakeClient{chainID: Sepolia.ChainID})

	var mu sync.Mutex
	current := testAddr
	go func() {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		current = "0x0000000000000000000000000000000000000001"
		mu.Unlock()
	}()
	err := s.Watch(context.Background(), time.Millisecond, func() string {
		mu.Lock()
		defer mu.Unlock()
		return current
	})
	assert.ErrorIs(t, err, ErrSessionReset)
}

func TestWatchIgnoresTransientErrorsAndStopsOnCancel(t *testing.T) {
	client := &fakeClient{chainID: Sepolia.ChainID}
	s := connected(t, client)
	client.mu.Lock()
	client.idErr = errors.New("rate limited")
	client.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Watch(ctx, time.Millisecond, func() string { return "" }))
}
