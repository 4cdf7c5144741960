package backend

import (
	"context"
	"errors"
	"testing"

	"taskboard/internal/backend/restapi"
	"taskboard/internal/config"
	"taskboard/internal/logging"
	"taskboard/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Dir: t.TempDir(), Settings: config.DefaultSettings()}
}

func TestOpen_Offline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Offline = true

	svc, err := Open(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(service.Offline); !ok {
		t.Errorf("expected offline service, got %T", svc)
	}
}

func TestOpen_REST(t *testing.T) {
	svc, err := Open(context.Background(), testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*restapi.Client); !ok {
		t.Errorf("expected REST client, got %T", svc)
	}
}

func TestOpen_GoogleTasksRequiresLogin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.Backend = config.BackendGoogleTasks

	_, err := Open(context.Background(), cfg, logging.Discard())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.Backend = "smoke-signals"
	if _, err := Open(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("expected error")
	}
}
