package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// CallbackTimeout bounds how long Authorize waits for the browser redirect.
	CallbackTimeout = 5 * time.Minute

	// ExchangeTimeout bounds the code-for-token exchange.
	ExchangeTimeout = 30 * time.Second

	callbackPath = "/callback"
)

var (
	// ErrStateMismatch is returned when the callback state does not match the request.
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrNoCode is returned when the callback carries no authorization code.
	ErrNoCode = errors.New("no code in callback")
	// ErrCallbackTimeout is returned when no callback arrives in time.
	ErrCallbackTimeout = errors.New("oauth callback timed out")
)

// LoadOAuthConfig reads desktop client credentials downloaded from the Cloud console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return conf, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with mode 0600.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TokenUsable reports whether tok carries a refresh token that conf can still refresh.
func TokenUsable(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) bool {
	if tok == nil || tok.RefreshToken == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := conf.TokenSource(ctx, tok).Token()
	return err == nil
}

// ListenLoopback binds the first free localhost port in [start, start+attempts).
func ListenLoopback(start, attempts int) (net.Listener, int, error) {
	for port := start; port < start+attempts; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return l, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no available port in %d-%d", start, start+attempts-1)
}

// Authorizer runs the installed-app authorization code flow with PKCE
// against a loopback redirect.
type Authorizer struct {
	Config   *oauth2.Config
	Listener net.Listener
	Timeout  time.Duration

	// Prompt is called with the URL the user must open.
	Prompt func(authURL string)
}

// Authorize serves the redirect on a.Listener, waits for the code and exchanges it.
// a.Config.RedirectURL is set from the listener address.
func (a Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = CallbackTimeout
	}

	conf := *a.Config
	port := a.Listener.Addr().(*net.TCPAddr).Port
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d%s", port, callbackPath)

	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, ErrStateMismatch)
		case q.Get("code") == "":
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, ErrNoCode)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
			select {
			case codeCh <- q.Get("code"):
			default:
			}
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(a.Listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if a.Prompt != nil {
		a.Prompt(authURL)
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		return nil, ErrCallbackTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, ExchangeTimeout)
	defer cancel()
	tok, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return tok, nil
}

func sendErr(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}
