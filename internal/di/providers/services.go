package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/logger"
	"github.com/shelfsync/shelfsync/internal/service"
	"github.com/shelfsync/shelfsync/internal/weread"
)

// ProvideSyncService provides the sync service.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client, err := do.Invoke[*weread.Client](i)
	if err != nil {
		return nil, err
	}
	wsHandle, err := do.Invoke[*WorkspaceHandle](i)
	if err != nil {
		return nil, err
	}
	journalHandle, err := do.Invoke[*JournalHandle](i)
	if err != nil {
		return nil, err
	}

	return service.NewSyncService(client, wsHandle.Workspace, journalHandle.Journal, service.SyncOptions{
		RootPageID:         wsHandle.RootPageID,
		Databases:          cfg.Databases,
		Location:           cfg.Sync.Location,
		AnnotationInterval: cfg.Sync.AnnotationInterval,
	}, log.Logger), nil
}

// ProvideHistory provides read access to past runs. It needs no credentials.
func ProvideHistory(i do.Injector) (*service.History, error) {
	journalHandle, err := do.Invoke[*JournalHandle](i)
	if err != nil {
		return nil, err
	}
	return service.NewHistory(journalHandle.Journal), nil
}
