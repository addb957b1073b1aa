package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/rpc"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

var (
	ErrNoWallet     = errors.New("no signing wallet available")
	ErrWrongNetwork = errors.New("wrong network")
	ErrSessionReset = errors.New("session reset")
)

// selectTimeout bounds endpoint probing at connect time.
const selectTimeout = 10 * time.Second

// WrongNetworkError reports the chain a node is actually on.
type WrongNetworkError struct {
	Want Network
	Got  Network
}

func (e *WrongNetworkError) Error() string {
	return fmt.Sprintf("Wrong network. Switch to %s. (connected to %s)", e.Want.Name, e.Got)
}

func (e *WrongNetworkError) Is(target error) bool { return target == ErrWrongNetwork }

// Client is a node connection. *ethclient.Client satisfies it.
type Client interface {
	contract.Backend
	Close()
}

// Dialer opens a Client for an RPC URL.
type Dialer func(ctx context.Context, url string) (Client, error)

// DialEth dials with go-ethereum's ethclient.
func DialEth(ctx context.Context, url string) (Client, error) {
	return ethclient.DialContext(ctx, url)
}

// Options describe what a session connects to and as whom.
type Options struct {
	RPCURLs    []string
	Picker     *rpc.Picker // shared across reconnects; nil means a fresh fastest picker
	ChainID    int64
	Contract   common.Address
	Wallets    *wallet.Manager
	WalletName string // empty means the default wallet
	ReadOnly   bool   // skip the wallet; the handle can only call and decode
	Dial       Dialer // nil means DialEth
	Logger     *zap.Logger
}

// Session is one connected wallet, node and contract. A session never
// survives a chain or account change; Watch reports ErrSessionReset and the
// caller builds a new one.
type Session struct {
	Client  Client
	Handle  *contract.Handle
	Wallet  *wallet.Wallet
	Signer  *wallet.Signer
	Network Network
	RPCURL  string

	chainID *big.Int
	log     *zap.Logger
}

// Connect resolves the wallet, picks and dials an endpoint, checks the
// chain and binds the contract.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	dial := opts.Dial
	if dial == nil {
		dial = DialEth
	}

	var w *wallet.Wallet
	if !opts.ReadOnly {
		var err error
		if w, err = resolveWallet(opts.Wallets, opts.WalletName); err != nil {
			return nil, err
		}
	}

	picker := opts.Picker
	if picker == nil {
		picker = rpc.NewPicker(rpc.AlgorithmFastest)
	}
	selCtx, cancel := context.WithTimeout(ctx, selectTimeout)
	url, err := picker.Select(selCtx, opts.RPCURLs)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("selecting rpc: %w", err)
	}
	log.Debug("rpc selected", zap.String("url", url))

	client, err := dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	want, _ := LookupNetwork(opts.ChainID)
	if id.Cmp(big.NewInt(opts.ChainID)) != 0 {
		client.Close()
		got, _ := LookupNetwork(id.Int64())
		return nil, &WrongNetworkError{Want: want, Got: got}
	}

	var (
		signer   *wallet.Signer
		txSigner contract.TxSigner
	)
	if w != nil {
		if signer, err = opts.Wallets.Signer(w); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: %v", ErrNoWallet, err)
		}
		txSigner = signer
	}
	handle, err := contract.NewHandle(client, opts.Contract, id, txSigner)
	if err != nil {
		client.Close()
		return nil, err
	}

	s := &Session{
		Client:  client,
		Handle:  handle,
		Wallet:  w,
		Signer:  signer,
		Network: want,
		RPCURL:  url,
		chainID: id,
		log:     log,
	}
	log.Info("session connected",
		zap.String("wallet", s.WalletName()),
		zap.String("account", s.Account().Hex()),
		zap.String("network", want.String()),
		zap.String("contract", opts.Contract.Hex()),
	)
	return s, nil
}

func resolveWallet(m *wallet.Manager, name string) (*wallet.Wallet, error) {
	if m == nil {
		return nil, ErrNoWallet
	}
	var w *wallet.Wallet
	if name != "" {
		var err error
		if w, err = m.Get(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoWallet, err)
		}
	} else if w = m.Default(); w == nil {
		return nil, ErrNoWallet
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %q is watch-only", ErrNoWallet, w.Name)
	}
	return w, nil
}

// Account returns the signing address, or the zero address for a
// read-only session.
func (s *Session) Account() common.Address {
	if s.Signer == nil {
		return common.Address{}
	}
	return s.Signer.Address()
}

// WalletName returns the wallet's name, or "" for a read-only session.
func (s *Session) WalletName() string {
	if s.Wallet == nil {
		return ""
	}
	return s.Wallet.Name
}

// ReadOnly reports whether the session can send transactions.
func (s *Session) ReadOnly() bool { return s.Signer == nil }

// Watch polls the node's chain id and account every interval until ctx
// ends. account reports the address the user currently selects; an empty
// result means unchanged. Any change returns an error wrapping
// ErrSessionReset. Transient RPC errors are logged and ignored.
func (s *Session) Watch(ctx context.Context, interval time.Duration, account func() string) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		id, err := s.Client.ChainID(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("watch: chain id", zap.Error(err))
			continue
		}
		if id.Cmp(s.chainID) != 0 {
			got, _ := LookupNetwork(id.Int64())
			return fmt.Errorf("%w: network changed to %s", ErrSessionReset, got)
		}
		if account == nil {
			continue
		}
		if addr := account(); addr != "" && !strings.EqualFold(addr, s.Account().Hex()) {
			return fmt.Errorf("%w: account changed to %s", ErrSessionReset, addr)
		}
	}
}

// Close releases the node connection.
func (s *Session) Close() {
	s.Client.Close()
}
