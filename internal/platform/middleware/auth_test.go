package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	principal *Principal
	err       error
	gotToken  string
}

func (s *stubResolver) ResolveToken(_ context.Context, token string) (*Principal, error) {
	s.gotToken = token
	return s.principal, s.err
}

func guardedHandler(resolver *stubResolver) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return RequireIdentity(resolver, "playdex_session", "/", logger)(inner)
}

func TestRequireIdentity(t *testing.T) {
	t.Run("valid cookie attaches the principal", func(t *testing.T) {
		resolver := &stubResolver{principal: &Principal{SteamID: "76561198000000001", Persona: "gordon"}}
		var seen *Principal
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetPrincipal(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := RequireIdentity(resolver, "playdex_session", "/", logger)(inner)

		req := httptest.NewRequest(http.MethodGet, "/games/owned", nil)
		req.AddCookie(&http.Cookie{Name: "playdex_session", Value: "signed-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "signed-token", resolver.gotToken)
		require.NotNil(t, seen)
		assert.Equal(t, "gordon", seen.Persona)
	})

	t.Run("missing cookie redirects to the landing page", func(t *testing.T) {
		resolver := &stubResolver{}
		handler := guardedHandler(resolver)

		req := httptest.NewRequest(http.MethodGet, "/games/owned", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Empty(t, resolver.gotToken)
	})

	t.Run("empty cookie value redirects without resolving", func(t *testing.T) {
		resolver := &stubResolver{}
		handler := guardedHandler(resolver)

		req := httptest.NewRequest(http.MethodGet, "/games/owned", nil)
		req.AddCookie(&http.Cookie{Name: "playdex_session", Value: ""})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Empty(t, resolver.gotToken)
	})

	t.Run("resolver failure redirects instead of erroring", func(t *testing.T) {
		resolver := &stubResolver{err: errors.New("session expired")}
		handler := guardedHandler(resolver)

		req := httptest.NewRequest(http.MethodGet, "/games/owned", nil)
		req.AddCookie(&http.Cookie{Name: "playdex_session", Value: "stale-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Equal(t, "stale-token", resolver.gotToken)
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Run("round-trips through the context", func(t *testing.T) {
		principal := &Principal{SteamID: "76561198000000001"}
		ctx := WithPrincipal(context.Background(), principal)
		assert.Same(t, principal, GetPrincipal(ctx))
	})

	t.Run("absent principal reads as nil", func(t *testing.T) {
		assert.Nil(t, GetPrincipal(context.Background()))
	})
}
