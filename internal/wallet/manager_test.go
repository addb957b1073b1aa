package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

// Hardhat/Anvil account #0. Never fund on mainnet.
const (
	testKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager()

	require.NoError(t, mgr.Add("watcher", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))

	w, err := mgr.Get("watcher")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.Equal(t, testAddr, w.Address, "address is checksummed")
	assert.False(t, w.CanSign())
	assert.NotEmpty(t, w.CreatedAt)
}

func TestAddRejectsBadAddress(t *testing.T) {
	err := wallet.NewManager().Add("w", "0x1234")
	assert.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.Add("dup", testAddr))
	assert.ErrorIs(t, mgr.Add("dup", testAddr), wallet.ErrWalletExists)
	assert.ErrorIs(t, mgr.AddWithKey("dup", testKey), wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeyStore(ks))

	require.NoError(t, mgr.AddWithKey("signer", testKey))

	w, err := mgr.Get("signer")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, testAddr, w.Address)
	assert.Equal(t, "assetcli.signer", w.KeyRef)

	stored, err := ks.Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, testKey[2:], stored)
}

func TestAddWithKeyInvalid(t *testing.T) {
	err := wallet.NewManager().AddWithKey("bad", "0xnothex")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestGenerate(t *testing.T) {
	mgr := wallet.NewManager()
	addr, err := mgr.Generate("fresh")
	require.NoError(t, err)
	assert.Len(t, addr, 42)

	w, err := mgr.Get("fresh")
	require.NoError(t, err)
	s, err := mgr.Signer(w)
	require.NoError(t, err)
	assert.Equal(t, addr, s.Address().Hex())
}

func TestGetMissing(t *testing.T) {
	_, err := wallet.NewManager().Get("nobody")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestRemoveDeletesKey(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeyStore(ks))
	require.NoError(t, mgr.AddWithKey("s", testKey))

	require.NoError(t, mgr.Remove("s"))
	_, err := mgr.Get("s")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = ks.Retrieve("assetcli.s")
	assert.Error(t, err)

	assert.ErrorIs(t, mgr.Remove("s"), wallet.ErrWalletNotFound)
}

func TestListSorted(t *testing.T) {
	mgr := wallet.NewManager()
	for _, n := range []string{"carol", "alice", "bob"} {
		require.NoError(t, mgr.Add(n, testAddr))
	}
	ws, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, ws, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{ws[0].Name, ws[1].Name, ws[2].Name})
}

func TestDefaultWallet(t *testing.T) {
	mgr := wallet.NewManager()
	assert.Nil(t, mgr.Default())

	require.NoError(t, mgr.Add("only", testAddr))
	require.NotNil(t, mgr.Default())
	assert.Equal(t, "only", mgr.Default().Name, "single wallet is the default")

	require.NoError(t, mgr.Add("second", testAddr))
	assert.Nil(t, mgr.Default(), "ambiguous without an explicit default")

	require.NoError(t, mgr.SetDefault("second"))
	assert.Equal(t, "second", mgr.Default().Name)

	assert.ErrorIs(t, mgr.SetDefault("ghost"), wallet.ErrWalletNotFound)
}

func TestJSONStorePersistsAcrossManagers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallets.json")
	ks := wallet.NewInMemoryKeystore()

	first := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeyStore(ks))
	require.NoError(t, first.AddWithKey("main", testKey))
	require.NoError(t, first.SetDefault("main"))

	second := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeyStore(ks))
	w := second.Default()
	require.NotNil(t, w)
	assert.Equal(t, "main", w.Name)
	assert.Equal(t, testAddr, w.Address)
	assert.True(t, w.IsDefault)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	ws, err := wallet.NewJSONStore(filepath.Join(t.TempDir(), "none.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestReloadSeesExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	a := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	b := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	require.NoError(t, a.Add("one", testAddr))
	assert.Equal(t, "one", b.Default().Name)

	require.NoError(t, a.Add("two", testAddr))
	require.NoError(t, a.SetDefault("two"))
	assert.Equal(t, "one", b.Default().Name, "cached view")
	b.Reload()
	assert.Equal(t, "two", b.Default().Name)
}
