package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(app *App) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		pruneDays  int
	)

	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Show recorded install and uninstall outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			j, err := journal.Open(ctx, app.Config.Paths.JournalFile)
			if err != nil {
				return &journalError{err}
			}
			defer j.Close()

			if pruneDays > 0 {
				n, err := j.Prune(ctx, time.Now().UTC().AddDate(0, 0, -pruneDays))
				if err != nil {
					return &journalError{err}
				}
				ui.PrintSuccess(cmd.OutOrStdout(), "Pruned %d entr(ies) older than %d day(s)", n, pruneDays)
				return nil
			}

			opts := journal.ListOptions{Limit: limit}
			if len(args) == 1 {
				opts.Name = args[0]
			}
			entries, err := j.List(ctx, opts)
			if err != nil {
				return &journalError{err}
			}

			if jsonOutput {
				if entries == nil {
					entries = []journal.Entry{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				ui.PrintInfo(cmd.OutOrStdout(), "No recorded operations")
				return nil
			}

			printHistoryTable(cmd, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVar(&pruneDays, "prune", 0, "delete entries older than this many days")

	return cmd
}

func printHistoryTable(cmd *cobra.Command, entries []journal.Entry) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Date", "Operation", "Name", "Version", "Type", "Status", "Message"}),
		tablewriter.WithAlignment(tw.MakeAlign(7, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, e := range entries {
		status := ui.ColorizeStatus(e.Status)
		if e.RebootRequired {
			status += " (restart)"
		}
		table.Append(
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Op,
			orDash(e.Name),
			orDash(e.Version),
			orDash(e.Kind),
			status,
			orDash(truncate(e.Message, 60)),
		)
	}

	table.Render()
}

// journalError marks a failure of the operation journal itself
type journalError struct {
	err error
}

func (e *journalError) Error() string {
	return fmt.Sprintf("journal: %v", e.err)
}

func (e *journalError) Unwrap() error {
	return e.err
}
