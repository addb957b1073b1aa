package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/assetcli/internal/rpc"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

var networkBench bool

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Check the node, chain and contract the CLI talks to",
	Long: `Connect to the configured RPC endpoints and report the chain, the
default account and the contract.

With --bench every configured endpoint is probed and ranked.

Examples:
  assetcli network
  assetcli network --bench`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if networkBench {
			return benchRPCs(ctx)
		}

		sess, err := connect(ctx, "", true)
		if err != nil {
			return err
		}
		defer sess.Close()

		head, err := sess.Client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("getting block number: %w", err)
		}
		account := ui.Meta("none, run: assetcli wallet generate <name>")
		mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())))
		if w := mgr.Default(); w != nil {
			account = fmt.Sprintf("%s (%s, %s)", w.Address, w.Name, w.Type)
		}
		contractAddr := sess.Handle.Address().Hex()
		fmt.Println(ui.KeyValueBlock("Network", [][2]string{
			{"Network", sess.Network.String()},
			{"RPC", sess.RPCURL},
			{"Head block", fmt.Sprintf("%d", head)},
			{"Account", account},
			{"Contract", contractAddr},
			{"Explorer", sess.Network.AddressURL(contractAddr)},
			{"Faucet", sess.Network.Faucet},
		}))
		fmt.Println(ui.Success("Connected to " + sess.Network.Name + "."))
		return nil
	},
}

func benchRPCs(ctx context.Context) error {
	spin := ui.NewSpinner(fmt.Sprintf("Probing %d endpoint(s)...", len(cfg.RPCURLs)))
	spin.Start()
	results := rpc.Benchmark(ctx, cfg.RPCURLs)
	spin.Stop()

	p, err := endpointPicker()
	if err != nil {
		return err
	}
	t := ui.NewTable([]ui.Column{
		{Title: "URL", Width: 48},
		{Title: "Latency", Width: 10},
		{Title: "Block", Width: 12},
		{Title: "Status", Width: 24},
	})
	for _, r := range results {
		status, latency, block := "ok", r.Latency.Round(time.Millisecond).String(), fmt.Sprintf("%d", r.BlockNumber)
		if r.Err != nil {
			status, latency, block = r.Err.Error(), "-", "-"
		}
		t.AddRow(ui.Row{r.URL, latency, block, status})
	}
	fmt.Println(t.Render())

	winner, err := p.Pick(rpc.ResultsToEndpoints(results))
	if err != nil {
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("%s picks %s", p.Algorithm(), winner.URL)))
	return nil
}

func init() {
	networkCmd.Flags().BoolVar(&networkBench, "bench", false, "probe and rank every configured RPC endpoint")
}
