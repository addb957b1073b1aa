package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/bridge"
	"github.com/Mohsinsiddi/assetcli/internal/chain"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
	"github.com/Mohsinsiddi/assetcli/internal/logging"
	"github.com/Mohsinsiddi/assetcli/internal/tx"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
	"github.com/Mohsinsiddi/assetcli/internal/wallet"
)

var (
	dappRole   string
	dappWallet string
)

var dappCmd = &cobra.Command{
	Use:   "dapp",
	Short: "Open the interactive contract screen",
	Long: `Open the interactive screen: role tabs, action forms, notifications,
transaction history and live contract events.

The session is rebuilt from scratch whenever the node switches chains or
the default wallet changes.

Examples:
  assetcli dapp
  assetcli dapp --role warehouse --wallet depot`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := action.ParseRole(dappRole)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		for {
			err := runDappSession(ctx, role)
			if !errors.Is(err, chain.ErrSessionReset) {
				return err
			}
			logger.Info("session reset", zap.Error(err))
			fmt.Println(ui.Warn(err.Error() + ". Reconnecting..."))
		}
	},
}

// runDappSession connects, runs the screen and tears everything down.
func runDappSession(ctx context.Context, role action.Role) error {
	sess, err := connect(ctx, dappWallet, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := feed.NewBus()
	if err := logging.Mirror(bus, logger); err != nil {
		return err
	}
	sub := tx.NewSubmitter(sess.Handle, bus,
		tx.WithConfirmTimeout(cfg.ConfirmTimeoutDuration()),
		tx.WithLogger(logger),
	)

	br := bridge.New(sess.Client, sess.Handle, cfg.EventPollDuration(), logger)
	go func() {
		if err := br.Subscribe(ctx, contract.DefaultEvents, publishEvent(bus)); err != nil {
			logger.Error("event bridge stopped", zap.Error(err))
			bus.Notify(feed.LevelDanger, "Event feed stopped: "+err.Error())
		}
	}()

	model := ui.NewDappModel(ui.DappConfig{
		Account:  sess.Account().Hex(),
		Network:  sess.Network.String(),
		Contract: sess.Handle.Address().Hex(),
		Role:     role,
		Mode:     cfg.Mode(),
		TTL:      cfg.NotificationTTLDuration(),
		TxURL:    sess.Network.TxURL,
		Submit: func(d action.Descriptor, values map[string]string) tx.Result {
			return sub.Submit(ctx, d, values)
		},
		Quote: func(_ action.Descriptor, values map[string]string) (string, error) {
			return quotePrice(ctx, sess.Handle, values)
		},
	})

	// A wallet picked with --wallet is pinned; only the default follows
	// "wallet use".
	var account func() string
	if dappWallet == "" {
		account = defaultAccount(wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))))
	}
	watch := func(ctx context.Context) error {
		return sess.Watch(ctx, cfg.EventPollDuration(), account)
	}
	return ui.RunDapp(ctx, model, bus, watch)
}

// publishEvent records each event on bus and follows token creation and
// activation with a success notice. Bus handlers run under the bus lock,
// so the notice cannot be raised from an OnEvent handler.
func publishEvent(bus *feed.Bus) func(feed.EventRecord) {
	return func(rec feed.EventRecord) {
		bus.RecordEvent(rec)
		if msg, ok := eventNotice(rec); ok {
			bus.Notify(feed.LevelSuccess, msg)
		}
	}
}

// eventNotice is the success message shown when a token is created or
// activated. Args follow the event's ABI input order.
func eventNotice(rec feed.EventRecord) (string, bool) {
	switch {
	case rec.EventName == "TokenCreated" && len(rec.Args) >= 2:
		return fmt.Sprintf("Token Created: %s (ID: %s)", rec.Args[1], rec.Args[0]), true
	case rec.EventName == "TokenActivated" && len(rec.Args) >= 1:
		return fmt.Sprintf("Token Activated (ID: %s)", rec.Args[0]), true
	}
	return "", false
}

// defaultAccount returns a func that re-reads the wallet store and reports
// the default address. It never touches the keychain.
func defaultAccount(mgr *wallet.Manager) func() string {
	return func() string {
		mgr.Reload()
		if w := mgr.Default(); w != nil {
			return w.Address
		}
		return ""
	}
}

func init() {
	dappCmd.Flags().StringVar(&dappRole, "role", string(action.RoleVendor), "initial role tab: vendor, trader or warehouse")
	dappCmd.Flags().StringVarP(&dappWallet, "wallet", "w", "", "signing wallet (default: the default wallet)")
}
