package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
)

var tokenCmd = &cobra.Command{
	Use:   "token <id>",
	Short: "Show a token's on-chain record and selling price",
	Long: `Read tokens(id) and tokenSellingPrice(id) from the contract.

No wallet is needed.

Examples:
  assetcli token 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if msg := action.Validate(action.KindUint256, args[0]); msg != "" {
			return fmt.Errorf("token id %q: %s", args[0], msg)
		}
		id, _ := new(big.Int).SetString(args[0], 10)

		ctx := cmd.Context()
		sess, err := connect(ctx, "", true)
		if err != nil {
			return err
		}
		defer sess.Close()

		info, err := sess.Handle.Token(ctx, id)
		if err != nil {
			return err
		}
		price, err := sess.Handle.SellingPrice(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Token #%s", id), tokenPairs(info, price, sess.Network.AddressURL)))
		return nil
	},
}

func tokenPairs(info *contract.TokenInfo, price *big.Int, addrURL func(string) string) [][2]string {
	pairs := [][2]string{
		{"Name", info.Name},
		{"Description", info.Description},
		{"Initial value", fmt.Sprintf("%s wei", info.InitialValue)},
		{"State", fmt.Sprintf("%d (%s)", info.State, info.StateName())},
		{"Owner", info.Owner.Hex()},
		{"Selling price", fmt.Sprintf("%s ETH", action.FormatEther(price))},
	}
	if u := addrURL(info.Owner.Hex()); u != "" {
		pairs = append(pairs, [2]string{"Owner explorer", u})
	}
	return pairs
}
