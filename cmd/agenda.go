package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newAgendaCmd() *cobra.Command {
	var (
		from   string
		to     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show the merged agenda across all calendar providers",
		Long: `Fetches events from every connected calendar provider, merges them
into one list sorted by start time and prints it. Providers that fail
are skipped; the agenda still renders from the rest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			events := a.Calendar.FetchAllEvents(cmd.Context(), userID, from, to)

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(events)
			}

			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events found")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("START"),
				text.FgHiCyan.Sprint("TITLE"),
				text.FgHiCyan.Sprint("SOURCE"),
				text.FgHiCyan.Sprint("LOCATION"),
			})
			for _, event := range events {
				start := event.Start.Format(time.RFC3339)
				if event.AllDay {
					start = event.Start.Format("2006-01-02") + " (all day)"
				}
				t.AppendRow(table.Row{start, event.Title, event.Source, event.Location})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start of the window (ISO format)")
	cmd.Flags().StringVar(&to, "to", "", "End of the window (ISO format)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(newAgendaCmd())
}
