package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "call [provider] <capability>",
		Short: "Execute a capability",
		Long: `Executes a capability and prints the result envelope as JSON.

With two arguments the capability runs on the named provider. With one
argument the capability is located by name alone; when several
providers expose the same name the one configured first wins.`,
		Example: `  navi call gmail send_email --param to=kim@example.com --param subject=Hi --param body=Hello
  navi call list_unified_events --param startDate=2026-09-01`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			result := (func() any {
				if len(args) == 2 {
					return a.Dispatcher.Dispatch(ctx, args[0], args[1], parsed, userID)
				}
				return a.Dispatcher.DispatchByName(ctx, args[0], parsed, userID)
			})()

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Capability parameter as key=value (repeatable)")
	return cmd
}

// parseParams turns repeated key=value flags into a parameter map.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func init() {
	rootCmd.AddCommand(newCallCmd())
}
