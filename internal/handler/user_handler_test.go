package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kdiary/internal/model"
)

type mockUserService struct {
	getFn func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockUserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

func TestUserHandler_UserInfo_ReturnsStoredProfile(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, userID int64) (*model.User, error) {
			return &model.User{ID: userID, Nickname: "kim", Profile: "p.jpg", Thumbnail: "t.jpg"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/userinfo", nil), 1001)
	w := httptest.NewRecorder()

	h.UserInfo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["nickname"] != "kim" {
		t.Errorf("nickname = %v, want kim", body["nickname"])
	}
	if _, ok := body["email"]; ok {
		t.Error("email should be omitted when empty")
	}
}

func TestUserHandler_UserInfo_UserRemoved_Returns404(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/userinfo", nil), 1001)
	w := httptest.NewRecorder()

	h.UserInfo(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}
