package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/chain"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
	"github.com/Mohsinsiddi/assetcli/internal/logging"
	"github.com/Mohsinsiddi/assetcli/internal/tx"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
)

var (
	invokeArgs   []string
	invokeWallet string
	invokeQuote  bool
	invokeNoWait bool
	invokeYes    bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <function>",
	Short: "Send one contract action",
	Long: `Validate the arguments of an action, send it from the signing wallet
and wait for the receipt.

Arguments are given as --arg name=value in any order. For purchaseToken the
ETH amount is the "value" argument; --quote fills it from the token's
current selling price.

Examples:
  assetcli invoke createToken --arg name=Gold --arg description="1oz bar" --arg value=1000 --arg validity=365
  assetcli invoke purchaseToken --arg tokenId=3 --quote
  assetcli invoke burnToken --arg tokenId=3 --arg redemptionCode=0x… --no-wait`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := action.Lookup(args[0])
		if err != nil {
			return err
		}
		values, err := parseArgFlags(invokeArgs)
		if err != nil {
			return err
		}
		if err := checkUnknownArgs(d, values); err != nil {
			return err
		}

		ctx := cmd.Context()
		sess, err := connect(ctx, invokeWallet, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		if invokeQuote {
			quoted, err := quoteValue(ctx, sess.Handle, d, values)
			if err != nil {
				return err
			}
			if quoted {
				fmt.Println(ui.Info("Quoted price: " + values[action.ValueParam] + " ETH"))
			}
		}
		if err := validateArgs(d, values); err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Invoke · "+d.Function, invokeSummary(sess, d, values)))
		if !invokeYes && !ui.Confirm(fmt.Sprintf("Send %s from %s?", d.Function, sess.WalletName())) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		bus := feed.NewBus()
		if err := logging.Mirror(bus, logger); err != nil {
			return err
		}
		printer := &cliPrinter{txURL: sess.Network.TxURL, wait: !invokeNoWait}
		if err := printer.attach(bus); err != nil {
			return err
		}
		defer printer.stop()

		opts := []tx.Option{tx.WithConfirmTimeout(cfg.ConfirmTimeoutDuration()), tx.WithLogger(logger)}
		if invokeNoWait {
			opts = append(opts, tx.WithoutWait())
		}
		res := tx.NewSubmitter(sess.Handle, bus, opts...).Submit(ctx, d, values)
		printer.stop()

		switch res.Outcome {
		case tx.OutcomeConfirmed:
			fmt.Println(ui.Meta(fmt.Sprintf("block %s · gas used %d", res.Receipt.BlockNumber, res.Receipt.GasUsed)))
			return nil
		case tx.OutcomePending:
			if res.Err == nil {
				return nil
			}
		}
		return reported(res.Err)
	},
}

// checkUnknownArgs rejects --arg names the action does not declare.
func checkUnknownArgs(d action.Descriptor, values map[string]string) error {
	var unknown []string
	for name := range values {
		if _, ok := d.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%s has no parameter %s (want %s)",
		d.Function, strings.Join(unknown, ", "), paramList(d))
}

// validateArgs applies the form rules to every declared param. A blank
// payable amount is allowed and means zero.
func validateArgs(d action.Descriptor, values map[string]string) error {
	var problems []string
	for _, p := range d.Params {
		v := values[p.Name]
		if d.IsValueParam(p) && strings.TrimSpace(v) == "" {
			continue
		}
		if msg := action.Validate(p.Kind, v); msg != "" {
			problems = append(problems, fmt.Sprintf("  %s: %s", p.Name, msg))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid arguments for %s:\n%s", d.Function, strings.Join(problems, "\n"))
}

// pricer reads a token's selling price. *contract.Handle satisfies it.
type pricer interface {
	SellingPrice(ctx context.Context, id *big.Int) (*big.Int, error)
}

// quoteValue fills an empty payable amount of a call that carries a
// tokenId from the token's selling price. It reports whether it did.
func quoteValue(ctx context.Context, p pricer, d action.Descriptor, values map[string]string) (bool, error) {
	if !d.Payable || strings.TrimSpace(values[action.ValueParam]) != "" {
		return false, nil
	}
	if _, ok := values["tokenId"]; !ok {
		return false, errors.New("--quote needs --arg tokenId=<id>")
	}
	price, err := quotePrice(ctx, p, values)
	if err != nil {
		return false, err
	}
	values[action.ValueParam] = price
	return true, nil
}

// quotePrice returns the selling price of values["tokenId"] in ETH.
func quotePrice(ctx context.Context, p pricer, values map[string]string) (string, error) {
	raw := strings.TrimSpace(values["tokenId"])
	if msg := action.Validate(action.KindUint256, raw); msg != "" {
		return "", fmt.Errorf("tokenId: %s", msg)
	}
	id, _ := new(big.Int).SetString(raw, 10)
	price, err := p.SellingPrice(ctx, id)
	if err != nil {
		return "", fmt.Errorf("quoting token %s: %w", id, err)
	}
	return action.FormatEther(price), nil
}

func invokeSummary(sess *chain.Session, d action.Descriptor, values map[string]string) [][2]string {
	pairs := [][2]string{
		{"Network", sess.Network.String()},
		{"From", sess.Account().Hex()},
		{"Contract", sess.Handle.Address().Hex()},
		{"Signature", d.Signature()},
	}
	for _, p := range d.Params {
		v := values[p.Name]
		if d.IsValueParam(p) {
			if strings.TrimSpace(v) == "" {
				v = "0"
			}
			v += " ETH"
		}
		pairs = append(pairs, [2]string{p.Name, v})
	}
	return pairs
}

// cliPrinter shows bus records on stdout. Submit runs on the command's
// goroutine, so handlers print directly.
type cliPrinter struct {
	txURL   func(string) string
	wait    bool
	spinner *ui.Spinner
}

func (p *cliPrinter) attach(bus *feed.Bus) error {
	if err := bus.OnTx(p.onTx); err != nil {
		return err
	}
	return bus.OnNotify(p.onNotify)
}

func (p *cliPrinter) onTx(t feed.PendingTransaction) {
	fmt.Println(ui.Meta("tx ") + ui.Addr(t.Hash))
	if p.txURL != nil {
		fmt.Println(ui.Hint(p.txURL(t.Hash)))
	}
}

func (p *cliPrinter) onNotify(n feed.Notification) {
	p.stop()
	fmt.Println(ui.Notice(n.Level, n.Message))
	if n.Level == feed.LevelInfo && p.wait {
		p.spinner = ui.NewSpinner("Waiting for confirmation...")
		p.spinner.Start()
	}
}

func (p *cliPrinter) stop() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

// reportedError marks a failure the user has already been shown.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

func init() {
	invokeCmd.Flags().StringArrayVarP(&invokeArgs, "arg", "a", nil, "argument as name=value (repeatable)")
	invokeCmd.Flags().StringVarP(&invokeWallet, "wallet", "w", "", "signing wallet (default: the default wallet)")
	invokeCmd.Flags().BoolVar(&invokeQuote, "quote", false, "fill an empty value from tokenSellingPrice(tokenId)")
	invokeCmd.Flags().BoolVar(&invokeNoWait, "no-wait", false, "return once the node accepts the transaction")
	invokeCmd.Flags().BoolVarP(&invokeYes, "yes", "y", false, "skip the confirmation prompt")
}
