package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
)

// googleConfig returns a config for the googletasks backend rooted at dir.
func googleConfig(dir string, quiet bool) *config.Config {
	settings := config.DefaultSettings()
	settings.Backend = config.BackendGoogleTasks
	return &config.Config{Dir: dir, Quiet: quiet, Settings: settings}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestLoginCommand_RESTBackend verifies login is rejected for the REST backend
func TestLoginCommand_RESTBackend(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir(), Settings: config.DefaultSettings()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(errBuf.String(), "googletasks") {
		t.Errorf("expected backend hint, got %q", errBuf.String())
	}
}

// TestLoginCommand_NoOAuthClient verifies login fails without oauth_client.json
func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleConfig(t.TempDir(), false), nil, nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if !strings.Contains(errBuf.String(), "oauth_client.json not found") {
		t.Errorf("expected missing client message, got %q", errBuf.String())
	}
}

// TestLoginCommand_NoRefreshToken verifies login proceeds when token has no refresh token
func TestLoginCommand_NoRefreshToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	tmpDir := t.TempDir()

	writeFile(t, filepath.Join(tmpDir, "oauth_client.json"),
		`{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`)
	writeFile(t, filepath.Join(tmpDir, "token.json"),
		`{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`)

	// Cancel immediately to prevent waiting for the OAuth callback
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	_ = cmd.Run(ctx, googleConfig(tmpDir, false), nil, nil, &outBuf, &errBuf)

	if outBuf.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with token missing refresh_token")
	}
}

// TestLogoutCommand_OnlyRemovesToken verifies logout only removes token.json
func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	tmpDir := t.TempDir()

	oauthPath := filepath.Join(tmpDir, "oauth_client.json")
	tokenPath := filepath.Join(tmpDir, "token.json")
	writeFile(t, oauthPath, `{"installed":{"client_id":"test","client_secret":"test"}}`)
	writeFile(t, tokenPath, `{"access_token":"test","refresh_token":"test"}`)

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleConfig(tmpDir, false), nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", outBuf.String())
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(oauthPath); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout handles not being logged in
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	for _, quiet := range []bool{false, true} {
		cmd := &commands.LogoutCmd{}

		var outBuf, errBuf bytes.Buffer
		code := cmd.Run(context.Background(), googleConfig(t.TempDir(), quiet), nil, nil, &outBuf, &errBuf)

		if code != exitcode.Success {
			t.Errorf("quiet=%v: expected exit code %d, got %d", quiet, exitcode.Success, code)
		}
		want := "not logged in\n"
		if quiet {
			want = ""
		}
		if outBuf.String() != want {
			t.Errorf("quiet=%v: expected %q, got %q", quiet, want, outBuf.String())
		}
	}
}

// TestLogoutCommand_RESTToken verifies logout points at the settings file for REST tokens
func TestLogoutCommand_RESTToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	cfg := &config.Config{Dir: t.TempDir(), Settings: config.DefaultSettings()}
	cfg.Settings.API.Token = "secret"

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(errBuf.String(), "api.token") || !strings.Contains(errBuf.String(), "config.toml") {
		t.Errorf("expected settings hint, got %q", errBuf.String())
	}
}
