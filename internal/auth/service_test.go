package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/session"
)

// --- モック定義 ---

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*model.ProviderTokenSet, error)
	fetchProfileFn func(ctx context.Context, accessToken string) (*model.ProviderProfile, error)
	refreshTokenFn func(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*model.ProviderTokenSet, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return &model.ProviderTokenSet{AccessToken: "kakao-at"}, nil
}

func (m *mockOAuthProvider) FetchProfile(ctx context.Context, accessToken string) (*model.ProviderProfile, error) {
	if m.fetchProfileFn != nil {
		return m.fetchProfileFn(ctx, accessToken)
	}
	return &model.ProviderProfile{ID: 1001, Nickname: "alice"}, nil
}

func (m *mockOAuthProvider) RefreshToken(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error) {
	if m.refreshTokenFn != nil {
		return m.refreshTokenFn(ctx, refreshToken)
	}
	return nil, nil
}

type mockUserUpserter struct {
	upsertFn func(ctx context.Context, profile *model.ProviderProfile) (*model.User, error)
	calls    int
}

func (m *mockUserUpserter) Upsert(ctx context.Context, profile *model.ProviderProfile) (*model.User, error) {
	m.calls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, profile)
	}
	return &model.User{ID: profile.ID, Nickname: profile.Nickname}, nil
}

type mockTokenIssuer struct {
	issueFn func(userID int64) (*session.TokenPair, error)
}

func (m *mockTokenIssuer) Issue(userID int64) (*session.TokenPair, error) {
	if m.issueFn != nil {
		return m.issueFn(userID)
	}
	return &session.TokenPair{
		Access:  &session.Token{Value: "access"},
		Refresh: &session.Token{Value: "refresh"},
	}, nil
}

// --- compile-time interface checks ---
var _ OAuthProvider = (*mockOAuthProvider)(nil)
var _ UserUpserter = (*mockUserUpserter)(nil)
var _ TokenIssuer = (*mockTokenIssuer)(nil)

// --- テスト ---

func TestGetLoginURL_DelegatesToProvider(t *testing.T) {
	provider := &mockOAuthProvider{
		getLoginURLFn: func(state string) string {
			return "https://kauth.kakao.com/oauth/authorize?state=" + state
		},
	}
	svc := NewService(provider, &mockUserUpserter{}, &mockTokenIssuer{}, nil)

	got := svc.GetLoginURL("s1")
	if got != "https://kauth.kakao.com/oauth/authorize?state=s1" {
		t.Errorf("GetLoginURL = %q", got)
	}
}

func TestHandleCallback_Success(t *testing.T) {
	var profileToken string
	var issuedFor int64
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(_ context.Context, code string) (*model.ProviderTokenSet, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			return &model.ProviderTokenSet{AccessToken: "kakao-at"}, nil
		},
		fetchProfileFn: func(_ context.Context, accessToken string) (*model.ProviderProfile, error) {
			profileToken = accessToken
			return &model.ProviderProfile{ID: 1001, Nickname: "alice"}, nil
		},
	}
	issuer := &mockTokenIssuer{
		issueFn: func(userID int64) (*session.TokenPair, error) {
			issuedFor = userID
			return &session.TokenPair{Access: &session.Token{Value: "a"}, Refresh: &session.Token{Value: "r"}}, nil
		},
	}
	collector := &recordingCollector{}
	svc := NewService(provider, &mockUserUpserter{}, issuer, collector)

	user, pair, err := svc.HandleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 1001 {
		t.Errorf("user.ID = %d, want 1001", user.ID)
	}
	if profileToken != "kakao-at" {
		t.Errorf("profile fetched with %q, want %q", profileToken, "kakao-at")
	}
	if issuedFor != 1001 {
		t.Errorf("tokens issued for %d, want 1001", issuedFor)
	}
	if pair.Access.Value != "a" || pair.Refresh.Value != "r" {
		t.Errorf("unexpected pair %+v", pair)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "success" {
		t.Errorf("logins = %v, want [success]", collector.logins)
	}
}

func TestHandleCallback_ExchangeFailure_NoUserCreated(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(context.Context, string) (*model.ProviderTokenSet, error) {
			return nil, model.NewAuthError("Kakao rejected the request", errors.New("invalid_grant"))
		},
	}
	users := &mockUserUpserter{}
	collector := &recordingCollector{}
	svc := NewService(provider, users, &mockTokenIssuer{}, collector)

	_, _, err := svc.HandleCallback(context.Background(), "bad-code")
	if !model.HasCode(err, model.ErrCodeAuthFailed) {
		t.Errorf("error = %v, want AUTH_FAILED", err)
	}
	if users.calls != 0 {
		t.Errorf("Upsert called %d times, want 0", users.calls)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "failure" {
		t.Errorf("logins = %v, want [failure]", collector.logins)
	}
}

func TestHandleCallback_ProfileUpstreamFailure(t *testing.T) {
	provider := &mockOAuthProvider{
		fetchProfileFn: func(context.Context, string) (*model.ProviderProfile, error) {
			return nil, model.NewUpstreamError(errors.New("timeout"))
		},
	}
	users := &mockUserUpserter{}
	svc := NewService(provider, users, &mockTokenIssuer{}, nil)

	_, _, err := svc.HandleCallback(context.Background(), "code")
	if !model.HasCode(err, model.ErrCodeUpstreamFailed) {
		t.Errorf("error = %v, want UPSTREAM_FAILED", err)
	}
	if users.calls != 0 {
		t.Errorf("Upsert called %d times, want 0", users.calls)
	}
}

func TestHandleCallback_MissingCode(t *testing.T) {
	svc := NewService(&mockOAuthProvider{}, &mockUserUpserter{}, &mockTokenIssuer{}, nil)

	_, _, err := svc.HandleCallback(context.Background(), "")
	if !model.HasCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("error = %v, want VALIDATION_FAILED", err)
	}
}

func TestRefreshProviderToken(t *testing.T) {
	provider := &mockOAuthProvider{
		refreshTokenFn: func(_ context.Context, refreshToken string) (*model.ProviderTokenSet, error) {
			return &model.ProviderTokenSet{AccessToken: "new-" + refreshToken}, nil
		},
	}
	svc := NewService(provider, &mockUserUpserter{}, &mockTokenIssuer{}, nil)

	tokens, err := svc.RefreshProviderToken(context.Background(), "rt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken != "new-rt" {
		t.Errorf("AccessToken = %q, want %q", tokens.AccessToken, "new-rt")
	}

	_, err = svc.RefreshProviderToken(context.Background(), "")
	if !model.HasCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("empty token error = %v, want VALIDATION_FAILED", err)
	}
}

func TestProviderProfile(t *testing.T) {
	svc := NewService(&mockOAuthProvider{}, &mockUserUpserter{}, &mockTokenIssuer{}, nil)

	profile, err := svc.ProviderProfile(context.Background(), "kakao-at")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ID != 1001 {
		t.Errorf("ID = %d, want 1001", profile.ID)
	}

	_, err = svc.ProviderProfile(context.Background(), "")
	if !model.HasCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("empty token error = %v, want VALIDATION_FAILED", err)
	}
}
