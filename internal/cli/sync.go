package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/di"
	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/service"
)

// NewSyncCommand creates the command running a sync of kind.
func NewSyncCommand(opts *RootOptions, kind domain.SyncKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:           string(kind),
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts, kind)
		},
	}
}

func runSync(cmd *cobra.Command, opts *RootOptions, kind domain.SyncKind) error {
	injector := di.NewContainer(opts.overrides())
	defer injector.Shutdown()

	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	svc, err := do.Invoke[*service.SyncService](injector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := svc.Run(ctx, kind)
	if run != nil {
		printStats(cmd.OutOrStdout(), run)
	}
	return err
}

func printStats(w io.Writer, run *domain.Run) {
	s := run.Stats
	fmt.Fprintf(w, "run %s (%s)\n", run.ID, run.Kind)
	fmt.Fprintf(w, "  books:       %d considered, %d skipped, %d created, %d updated\n",
		s.BooksConsidered, s.BooksSkipped, s.BooksCreated, s.BooksUpdated)
	fmt.Fprintf(w, "  records:     %d created, %d updated, %d unchanged\n",
		s.RecordsCreated, s.RecordsUpdated, s.RecordsUnchanged)
	fmt.Fprintf(w, "  calendar:    %d pages created\n", s.NodesCreated)
	fmt.Fprintf(w, "  annotations: %d created\n", s.AnnotationsCreated)
	if run.Error != "" {
		fmt.Fprintf(w, "  error:       %s\n", run.Error)
	}
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
