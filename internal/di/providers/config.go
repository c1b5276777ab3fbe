// Package providers contains dependency injection providers for shelfsync.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/logger"
)

// ProvideConfig provides the application configuration. Command-line
// overrides are read from the injector when present.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	o, err := do.Invoke[config.Overrides](i)
	if err != nil {
		o = config.Overrides{}
	}
	return config.Load(o)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		File:        cfg.Logger.File,
	})

	log.Debug("Starting shelfsync",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend", cfg.Storage.Backend,
		"data_dir", cfg.Storage.DataDir,
		"timezone", cfg.Sync.Timezone,
	)

	return log, nil
}
