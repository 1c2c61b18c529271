package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newSessionRouter(t *testing.T) (*chi.Mux, *managerFixture) {
	t.Helper()
	f := newManagerFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.manager, false)
	router := chi.NewRouter()
	router.Route("/session", handler.MountRoutes)
	return router, f
}

func withSessionCookie(req *http.Request, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	return req
}

func TestSessionStateEndpoint(t *testing.T) {
	router, f := newSessionRouter(t)
	id, _, err := f.manager.Start(context.Background(), "u-3", "manager@meridian.local", []string{"manager"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSessionCookie(httptest.NewRequest(http.MethodGet, "/session/", nil), id))
	require.Equal(t, http.StatusOK, rr.Code)

	var body stateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "active", body.State)
	require.True(t, body.IsActive)
	require.Equal(t, int64(120*60), body.TimeRemainingSeconds)
}

func TestSessionEndpointsRequireCookie(t *testing.T) {
	router, _ := newSessionRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/session/"},
		{http.MethodPost, "/session/activity"},
		{http.MethodPost, "/session/extend"},
		{http.MethodPost, "/session/logout"},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
	}
}

func TestExpiredSessionClearsCookie(t *testing.T) {
	router, f := newSessionRouter(t)
	id, _, err := f.manager.Start(context.Background(), "u-5", "viewer@meridian.local", []string{"viewer"})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSessionCookie(httptest.NewRequest(http.MethodGet, "/session/", nil), id))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestExtendEndpointRestartsWindow(t *testing.T) {
	router, f := newSessionRouter(t)
	id, _, err := f.manager.Start(context.Background(), "u-5", "viewer@meridian.local", []string{"viewer"})
	require.NoError(t, err)
	f.clock.Advance(56 * time.Minute)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSessionCookie(httptest.NewRequest(http.MethodPost, "/session/extend", nil), id))
	require.Equal(t, http.StatusOK, rr.Code)

	var body stateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.False(t, body.ShowWarning)
	require.Equal(t, int64(60*60), body.TimeRemainingSeconds)
}

func TestLogoutEndpoint(t *testing.T) {
	router, f := newSessionRouter(t)
	id, _, err := f.manager.Start(context.Background(), "u-4", "employee@meridian.local", []string{"employee"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSessionCookie(httptest.NewRequest(http.MethodPost, "/session/logout", nil), id))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withSessionCookie(httptest.NewRequest(http.MethodGet, "/session/", nil), id))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
