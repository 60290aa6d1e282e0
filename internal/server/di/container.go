package di

import (
	"fmt"

	"github.com/keywatch/keywatch/internal/server/httpapi"
	"github.com/keywatch/keywatch/internal/server/ingest"
	"github.com/keywatch/keywatch/internal/server/notify"
	"github.com/keywatch/keywatch/internal/server/storage"
	"github.com/keywatch/keywatch/internal/shared/config"
	"github.com/samber/do/v2"
)

// Setup initializes the dependency injection container.
func Setup() (do.Injector, error) {
	injector := do.New()

	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	})

	do.Provide(injector, func(i do.Injector) (storage.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := storage.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage at %s: %w", cfg.StoragePath, err)
		}
		return store, nil
	})

	do.Provide(injector, func(i do.Injector) (*notify.Notifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[storage.Store](i)
		notifier := notify.New(cfg, store)
		if err := notifier.Reload(); err != nil {
			return nil, fmt.Errorf("failed to initialize telegram transport: %w", err)
		}
		return notifier, nil
	})

	do.Provide(injector, func(i do.Injector) (*ingest.Service, error) {
		store := do.MustInvoke[storage.Store](i)
		notifier := do.MustInvoke[*notify.Notifier](i)
		return ingest.New(store, notifier), nil
	})

	do.Provide(injector, func(i do.Injector) (*httpapi.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[storage.Store](i)
		ingestSvc := do.MustInvoke[*ingest.Service](i)
		notifier := do.MustInvoke[*notify.Notifier](i)
		return httpapi.New(cfg, store, ingestSvc, notifier), nil
	})

	return injector, nil
}
