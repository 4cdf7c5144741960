// Package backend selects the remote task service configured for a session.
package backend

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"taskboard/internal/backend/googletasks"
	"taskboard/internal/backend/restapi"
	"taskboard/internal/config"
	"taskboard/internal/service"
)

// Open returns the service named by cfg.Settings.Backend.
// In offline mode every call fails fast so the store works from its cache.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (service.Service, error) {
	if cfg.Offline {
		logger.Debug("offline mode, remote service disabled")
		return service.Offline{}, nil
	}

	switch cfg.Settings.Backend {
	case "", config.BackendREST:
		client, err := restapi.New(restapi.Options{
			BaseURL: cfg.Settings.API.BaseURL,
			Timeout: cfg.Settings.API.Timeout.Duration,
			Token:   cfg.Settings.API.Token,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() || !cfg.HasToken() {
			return nil, ErrNotLoggedIn
		}
		client, err := googletasks.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Settings.Backend)
	}
}
