package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/session"
)

func newTestManager() (*session.Manager, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	return session.NewManager(session.ManagerConfig{
		Secret:     "test-secret",
		Issuer:     "kdiary-test",
		AccessTTL:  30 * time.Second,
		RefreshTTL: 100 * time.Second,
	}, clock), clock
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestSessionMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	manager, _ := newTestManager()
	pair, err := manager.Issue(1001)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var capturedUserID int64
	handler := NewSessionMiddleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		if got := csrfFromContext(r.Context()); got != pair.Access.CSRF {
			t.Errorf("csrf = %q, want %q", got, pair.Access.CSRF)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/userinfo", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookieName, Value: pair.Access.Value})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUserID != 1001 {
		t.Errorf("userID = %d, want %d", capturedUserID, 1001)
	}
}

func TestSessionMiddleware_Rejects(t *testing.T) {
	manager, _ := newTestManager()
	pair, err := manager.Issue(1001)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expiredManager, expiredClock := newTestManager()
	expiredPair, _ := expiredManager.Issue(1001)
	expiredClock.Advance(time.Minute)

	tests := []struct {
		name    string
		manager *session.Manager
		cookie  string
	}{
		{name: "no cookie", manager: manager},
		{name: "garbage", manager: manager, cookie: "garbage"},
		{name: "refresh token in access cookie", manager: manager, cookie: pair.Refresh.Value},
		{name: "expired", manager: expiredManager, cookie: expiredPair.Access.Value},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSessionMiddleware(tt.manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/userinfo", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.AccessCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			body := decodeErrorBody(t, w)
			if body.Code != model.ErrCodeAuthFailed {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAuthFailed)
			}
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for missing user ID")
	}

	ctx := ContextWithUserID(req.Context(), 42)
	got, err := UserIDFromContext(ctx)
	if err != nil || got != 42 {
		t.Errorf("UserIDFromContext = (%d, %v), want (42, nil)", got, err)
	}
}
