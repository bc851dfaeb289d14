package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestConfig(t *testing.T) *oauth2.Config {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "test-access", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	t.Cleanup(tokenServer.Close)

	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenServer.URL + "/authorize",
			TokenURL: tokenServer.URL + "/token",
		},
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("exchanges code for token", func(t *testing.T) {
		handler := NewCallbackHandler(newTestConfig(t), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=authcode", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		select {
		case result := <-handler.Result():
			if result.err != nil {
				t.Fatalf("unexpected error: %v", result.err)
			}
			if result.token.AccessToken != "test-access" {
				t.Errorf("token = %+v", result.token)
			}
		case <-time.After(time.Second):
			t.Fatal("no result delivered")
		}
	})

	t.Run("rejects state mismatch", func(t *testing.T) {
		handler := NewCallbackHandler(newTestConfig(t), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=authcode", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		result := <-handler.Result()
		if result.err == nil {
			t.Error("expected error for forged state")
		}
	})

	t.Run("surfaces provider error", func(t *testing.T) {
		handler := NewCallbackHandler(newTestConfig(t), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&error=access_denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.err == nil {
			t.Error("expected error when user denies access")
		}
	})

	t.Run("processes callback once", func(t *testing.T) {
		handler := NewCallbackHandler(newTestConfig(t), "state123")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=authcode", nil))
		<-handler.Result()

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=authcode", nil))
		if second.Code != http.StatusBadRequest {
			t.Errorf("replayed callback status = %d, want 400", second.Code)
		}
	})
}

func TestRedirectAddr(t *testing.T) {
	addr, path, err := redirectAddr("http://localhost:8888/callback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "localhost:8888" || path != "/callback" {
		t.Errorf("addr = %q path = %q", addr, path)
	}

	if _, _, err := redirectAddr("not a url at all %%%"); err == nil {
		t.Error("expected error for invalid url")
	}
}
