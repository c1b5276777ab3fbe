// Package cli implements the shelfsync command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/domain"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile    string
	Env        string
	LogLevel   string
	LogFile    string
	Backend    string
	SQLitePath string
	DataDir    string
	Timezone   string
}

func (o *RootOptions) overrides() config.Overrides {
	return config.Overrides{
		EnvFile:    o.EnvFile,
		Env:        o.Env,
		LogLevel:   o.LogLevel,
		LogFile:    o.LogFile,
		Backend:    o.Backend,
		DataDir:    o.DataDir,
		SQLitePath: o.SQLitePath,
		Timezone:   o.Timezone,
	}
}

// NewRootCommand creates the root command. Run bare, it syncs everything.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shelfsync",
		Short: "Sync WeRead reading data into a Notion workspace",
		Long: `shelfsync mirrors a WeRead account into a Notion workspace: bookshelf
pages, per-day reading records, highlights and notes, and Year, Month, Week
and Day pages linking them together. Runs are idempotent.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts, domain.SyncAll)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.EnvFile, "env-file", "", "path to a .env file (default ./.env)")
	flags.StringVar(&opts.Env, "env", "", "environment: development, staging or production")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.LogFile, "log-file", "", "also write JSON logs to this rotated file")
	flags.StringVar(&opts.Backend, "backend", "", "destination backend: notion or sqlite")
	flags.StringVar(&opts.SQLitePath, "sqlite-path", "", "path of the local workspace database")
	flags.StringVar(&opts.DataDir, "data-dir", "", "directory for local state (default ~/.shelfsync)")
	flags.StringVar(&opts.Timezone, "timezone", "", "IANA zone days are counted in (default Asia/Shanghai)")

	cmd.AddCommand(NewSyncCommand(opts, domain.SyncAll, "Sync books, reading records and daily reading time"))
	cmd.AddCommand(NewSyncCommand(opts, domain.SyncBooks, "Sync books, their reading records and annotations"))
	cmd.AddCommand(NewSyncCommand(opts, domain.SyncReadTime, "Sync the daily reading time only"))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
