// Package di provides dependency injection configuration for shelfsync.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// Services are built lazily, so a command only pays for what it invokes.
func NewContainer(o config.Overrides) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, o)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideJournal)
	do.Provide(injector, providers.ProvideWorkspace)

	// Remote
	do.Provide(injector, providers.ProvideWeReadClient)

	// Business services
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideHistory)

	return injector
}
