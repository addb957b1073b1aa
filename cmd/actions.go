package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
)

var actionsCmd = &cobra.Command{
	Use:   "actions [role]",
	Short: "List the contract actions available to each role",
	Long: `List every action by role with its parameters and 4-byte selector.

Examples:
  assetcli actions
  assetcli actions trader`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roles := action.Roles()
		if len(args) == 1 {
			r, err := action.ParseRole(args[0])
			if err != nil {
				return err
			}
			roles = []action.Role{r}
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Role", Width: 20},
			{Title: "Function", Width: 22},
			{Title: "Params", Width: 46},
			{Title: "Selector", Width: 10},
		})
		n := 0
		for _, r := range roles {
			ds, err := action.Actions(r)
			if err != nil {
				return err
			}
			for _, d := range ds {
				t.AddRow(ui.Row{r.Title(), d.Function, paramList(d), d.Selector()})
				n++
			}
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d action(s)", n)))
		fmt.Println(ui.Hint("Run one with: assetcli invoke <function> --arg name=value"))
		return nil
	},
}

// paramList renders "name kind, ..." with the payable amount marked.
func paramList(d action.Descriptor) string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		if d.IsValueParam(p) {
			parts[i] = p.Name + " (ETH, payable)"
			continue
		}
		parts[i] = p.Name + " " + string(p.Kind)
	}
	return strings.Join(parts, ", ")
}
