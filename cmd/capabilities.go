package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newCapabilitiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List every capability across all configured providers",
		Long: `Prints the flattened capability catalog: one row per capability,
namespaced by provider, exactly as it is offered to planners.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			catalog := a.Registry.Flattened()
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(catalog)
			}

			if len(catalog) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("NAME"),
				text.FgHiCyan.Sprint("SERVICE"),
				text.FgHiCyan.Sprint("DESCRIPTION"),
			})
			for _, entry := range catalog {
				t.AppendRow(table.Row{entry.Name, entry.Provider, entry.Description})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(newCapabilitiesCmd())
}
