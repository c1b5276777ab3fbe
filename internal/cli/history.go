package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/di"
	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/service"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	JSON  bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync runs",
		Long: `List recent sync runs, newest first, from the local run journal.

Example:
  shelfsync history --limit 5
  shelfsync history --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "maximum number of runs to list, 0 for all")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print runs as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	injector := di.NewContainer(opts.overrides())
	defer injector.Shutdown()

	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	history, err := do.Invoke[*service.History](injector)
	if err != nil {
		return err
	}
	runs, err := history.Recent(commandContext(cmd), opts.Limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []domain.Run{}
		}
		return enc.Encode(runs)
	}
	return printRuns(w, runs)
}

func printRuns(w io.Writer, runs []domain.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTARTED\tDURATION\tWRITES\tSTATUS")
	for _, r := range runs {
		status := "ok"
		switch {
		case r.FinishedAt == nil:
			status = "unfinished"
		case r.Error != "":
			status = "failed: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID,
			r.Kind,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond),
			r.Stats.Writes(),
			status,
		)
	}
	return tw.Flush()
}
