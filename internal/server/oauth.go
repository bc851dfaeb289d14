package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/discosync/discosync/internal/shared"
)

// callbackResult carries the outcome of one authorization flow.
type callbackResult struct {
	token *oauth2.Token
	err   error
}

// CallbackHandler serves the OAuth2 redirect endpoint. It validates state,
// exchanges the code, and delivers the result exactly once.
type CallbackHandler struct {
	config *oauth2.Config
	state  string

	results chan callbackResult
	once    sync.Once

	mu        sync.Mutex
	processed bool
}

func NewCallbackHandler(config *oauth2.Config, state string) *CallbackHandler {
	return &CallbackHandler{
		config:  config,
		state:   state,
		results: make(chan callbackResult, 1),
	}
}

// Result yields exactly one flow outcome, then the channel closes.
func (h *CallbackHandler) Result() <-chan callbackResult {
	return h.results
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// A replayed or refreshed callback must not restart the exchange.
	h.mu.Lock()
	if h.processed {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.processed = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.send(callbackResult{err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.send(callbackResult{err: fmt.Errorf("%w: %s (%s)", shared.ErrAuthFailed,
			query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(callbackResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(callbackResult{token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *CallbackHandler) send(result callbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Authorize runs the full authorization code flow: it serves the redirect
// endpoint of config, logs the URL for the user to open, and blocks until
// the provider calls back or ctx expires.
func Authorize(ctx context.Context, config *oauth2.Config, logger *log.Logger) (*oauth2.Token, error) {
	addr, path, err := redirectAddr(config.RedirectURL)
	if err != nil {
		return nil, err
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	handler := NewCallbackHandler(config, state)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}
	errs := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info("open this URL in your browser to authorize", "url", authURL)

	select {
	case result := <-handler.Result():
		if result.err != nil {
			return nil, result.err
		}
		return result.token, nil
	case err := <-errs:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorization timed out", shared.ErrAuthFailed)
	}
}

// redirectAddr derives the listen address and callback path from the
// configured redirect URL.
func redirectAddr(redirectURL string) (addr, path string, err error) {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: bad redirect url %q", shared.ErrInvalidConfig, redirectURL)
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("%w: redirect url %q has no host", shared.ErrInvalidConfig, redirectURL)
	}
	path = parsed.Path
	if path == "" {
		path = "/"
	}
	return parsed.Host, path, nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
