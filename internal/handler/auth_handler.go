// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/session"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.User, *session.TokenPair, error)
	RefreshProviderToken(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error)
	ProviderProfile(ctx context.Context, accessToken string) (*model.ProviderProfile, error)
}

// AccessRefresher はリフレッシュトークンからアクセストークンを再発行するインターフェース。
type AccessRefresher interface {
	RefreshAccess(refreshToken string) (*session.Token, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL      string
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はOAuth認証とセッショントークンのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	refresher AccessRefresher
	cookies   *session.CookieWriter
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, refresher AccessRefresher, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		refresher: refresher,
		cookies: session.NewCookieWriter(session.CookieConfig{
			Secure: config.CookieSecure,
			Domain: config.CookieDomain,
		}),
		config: config,
	}
}

// oauthURLResponse は/oauth/urlのレスポンス。
type oauthURLResponse struct {
	KakaoOAuthURL string `json:"kakao_oauth_url"`
}

// providerRefreshRequest は/oauth/refreshのリクエストボディ。
type providerRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// providerUserInfoRequest は/oauth/userinfoのリクエストボディ。
type providerUserInfoRequest struct {
	AccessToken string `json:"access_token"`
}

// LoginURL はKakaoの認可URLを返す。
// GET /oauth/url
func (h *AuthHandler) LoginURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, oauthURLResponse{KakaoOAuthURL: h.service.GetLoginURL(state)})
}

// Callback はOAuthコールバックを処理する。
// GET /oauth?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		writeAPIErrorResponse(w, model.NewValidationError("Invalid state parameter"))
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認証処理
	_, pair, err := h.service.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	// 3. セッションCookieを設定
	h.cookies.SetLogin(w, pair)

	// 4. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.BaseURL, http.StatusFound)
}

// ProviderRefresh はKakaoのリフレッシュトークンで新しいトークンを取得する。
// POST /oauth/refresh
func (h *AuthHandler) ProviderRefresh(w http.ResponseWriter, r *http.Request) {
	var req providerRefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	tokens, err := h.service.RefreshProviderToken(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProviderTokenResponse(tokens))
}

// ProviderUserInfo はKakaoのアクセストークンでプロフィールを取得する。
// POST /oauth/userinfo
func (h *AuthHandler) ProviderUserInfo(w http.ResponseWriter, r *http.Request) {
	var req providerUserInfoRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	profile, err := h.service.ProviderProfile(r.Context(), req.AccessToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProviderProfileResponse(profile))
}

// RefreshToken はリフレッシュトークンCookieから新しいアクセストークンを発行する。
// GET /token/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	access, err := h.refresher.RefreshAccess(session.RefreshTokenFromRequest(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookies.SetAccess(w, access)
	writeResultOK(w)
}

// RemoveToken はセッションCookieを全て削除する。
// サーバー側に状態を持たないため、発行済みトークンは期限まで有効なまま残る。
// GET /token/remove
func (h *AuthHandler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	h.cookies.Unset(w)
	writeResultOK(w)
}
