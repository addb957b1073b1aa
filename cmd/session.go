package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/assetcli/internal/chain"
	"github.com/Mohsinsiddi/assetcli/internal/rpc"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

// newWalletManager opens wallets.json and the OS keychain.
func newWalletManager() (*wallet.Manager, error) {
	ks, err := wallet.OpenKeystore(cfg.KeysDir())
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(ks),
	), nil
}

// picker is shared by every connect of one command run, so dapp reconnects
// rotate under round-robin and reuse a fastest winner.
var picker *rpc.Picker

func endpointPicker() (*rpc.Picker, error) {
	if picker == nil {
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return nil, err
		}
		picker = rpc.NewPicker(algo)
	}
	return picker, nil
}

// connect opens a session against the configured node and contract. A
// read-only session needs no wallet.
func connect(ctx context.Context, walletName string, readOnly bool) (*chain.Session, error) {
	p, err := endpointPicker()
	if err != nil {
		return nil, err
	}
	opts := chain.Options{
		RPCURLs:    cfg.RPCURLs,
		Picker:     p,
		ChainID:    cfg.ChainID,
		Contract:   cfg.Contract(),
		WalletName: walletName,
		ReadOnly:   readOnly,
		Logger:     logger,
	}
	if !readOnly {
		if opts.Wallets, err = newWalletManager(); err != nil {
			return nil, err
		}
	}

	spin := ui.NewSpinner("Connecting to " + chainLabel() + "...")
	spin.Start()
	s, err := chain.Connect(ctx, opts)
	spin.Stop()
	return s, err
}

func chainLabel() string {
	n, _ := chain.LookupNetwork(cfg.ChainID)
	return n.Name
}

// describeError renders a command failure with a hint where one helps.
func describeError(err error) string {
	var (
		wrong *chain.WrongNetworkError
		shown reportedError
	)
	switch {
	case errors.As(err, &shown):
		return ""
	case errors.As(err, &wrong):
		return ui.Err(wrong.Error()) + "\n" +
			ui.Hint("Point rpc_urls at a "+wrong.Want.Name+" node: assetcli config set-rpc <url>")
	case errors.Is(err, chain.ErrNoWallet):
		return ui.Err(err.Error()) + "\n" +
			ui.Hint("Create one with: assetcli wallet generate <name>")
	case errors.Is(err, rpc.ErrNoHealthyRPC):
		return ui.Err(err.Error()) + "\n" +
			ui.Hint("Add a working endpoint: assetcli config set-rpc <url>")
	case errors.Is(err, wallet.ErrWalletNotFound):
		return ui.Err(err.Error()) + "\n" + ui.Hint("List wallets with: assetcli wallet list")
	}
	return ui.Err(err.Error())
}

// parseArgFlags turns repeated name=value flags into a value map.
func parseArgFlags(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("bad --arg %q: want name=value", p)
		}
		if _, dup := values[name]; dup {
			return nil, fmt.Errorf("--arg %s given twice", name)
		}
		values[name] = value
	}
	return values, nil
}
