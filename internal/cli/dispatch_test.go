package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"taskboard/internal/backend"
	"taskboard/internal/cache"
	"taskboard/internal/cli"
	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/store"
	"taskboard/internal/task"
	"taskboard/internal/testutil"
)

// testFactory creates a store factory backed by the given FakeService.
func testFactory(svc *testutil.FakeService) cli.StoreFactory {
	return func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Store, error) {
		return store.New(svc, cache.NewMemory(), store.WithLogger(logger)), nil
	}
}

func run(t *testing.T, factory cli.StoreFactory, args ...string) (int, string, string) {
	t.Helper()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	code, _, stderr := run(t, testFactory(testutil.NewFakeService()), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	code, _, stderr := run(t, testFactory(testutil.NewFakeService()), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	code, stdout, stderr := run(t, testFactory(testutil.NewFakeService()), "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	code, stdout, stderr := run(t, testFactory(testutil.NewFakeService()), "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskboard 0.1.0\n" {
		t.Errorf("expected 'taskboard 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	code, _, stderr := run(t, testFactory(testutil.NewFakeService()), "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	code, _, stderr := run(t, testFactory(testutil.NewFakeService()), "add", "--priority")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -priority\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Write report", task.PriorityHigh, task.Date{}, false)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	code, stdout, stderr := run(t, testFactory(svc))

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stdout, "Write report") {
		t.Errorf("expected task in output, got %q", stdout)
	}
	if svc.CallCount("List") != 1 {
		t.Errorf("expected one list call, got %d", svc.CallCount("List"))
	}
}

func TestDispatcher_OfflineFlag(t *testing.T) {
	var got *config.Config
	factory := func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Store, error) {
		got = cfg
		return testFactory(testutil.NewFakeService())(ctx, cfg, logger)
	}

	code, _, stderr := run(t, factory, "list", "--offline", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	if got == nil || !got.Offline {
		t.Error("expected --offline to reach the store factory")
	}
}

func TestDispatcher_StoreFactoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{"not logged in", backend.ErrNotLoggedIn, exitcode.AuthError, "error: not logged in (run: taskboard login)\n"},
		{"other", errors.New("unknown backend: ftp"), exitcode.BackendError, "error: backend error: unknown backend: ftp\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(context.Context, *config.Config, *log.Logger) (*store.Store, error) {
				return nil, tt.err
			}
			code, _, stderr := run(t, factory, "list", "--config", t.TempDir())
			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

func TestDispatcher_CommandsWithoutStore(t *testing.T) {
	called := false
	factory := func(context.Context, *config.Config, *log.Logger) (*store.Store, error) {
		called = true
		return nil, errors.New("should not be called")
	}

	code, _, _ := run(t, factory, "version")
	if code != exitcode.Success || called {
		t.Errorf("version should not open the store (code %d, called %v)", code, called)
	}
}

func TestOpenStore_Offline(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Offline = true
	cfg.Settings.Cache.Driver = "memory"

	st, err := cli.OpenStore(context.Background(), cfg, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	res := st.Add(context.Background(), "Buy milk", task.PriorityLow, task.Date{})
	if !res.Offline || !res.Value.ID.IsLocal() {
		t.Errorf("expected offline local add, got %+v", res)
	}
}
