package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/logger"
	"github.com/shelfsync/shelfsync/internal/weread"
)

// ProvideWeReadClient provides the WeRead API client.
func ProvideWeReadClient(i do.Injector) (*weread.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	client, err := weread.New(cfg.WeRead.Cookie, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("WeRead client initialized")
	return client, nil
}
