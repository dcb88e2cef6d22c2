// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kdiary/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// csrfContextKey はアクセストークンのCSRF値を格納するためのキー。
	csrfContextKey = contextKey("csrf")
)

// AccessVerifier はアクセストークンの検証インターフェース。
// session.Managerの部分集合として定義する。
type AccessVerifier interface {
	VerifyAccess(token string) (*session.Claims, error)
}

// NewSessionMiddleware はアクセストークンCookieを検証するミドルウェアを返す。
// 認証済みユーザーIDとCSRF値をリクエストコンテキストに注入する。
// トークンが無い・不正・期限切れの場合は401を返す。
func NewSessionMiddleware(verifier AccessVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifier.VerifyAccess(session.AccessTokenFromRequest(r))
			if err != nil {
				slog.Debug("access token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteError(w, err)
				return
			}

			// VerifyAccessがsubの形式を検証済み
			userID, _ := claims.UserID()
			setLoggedUserID(r.Context(), userID)

			ctx := ContextWithUserID(r.Context(), userID)
			ctx = context.WithValue(ctx, csrfContextKey, claims.CSRF)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// csrfFromContext はアクセストークンのCSRF値を取得する。
func csrfFromContext(ctx context.Context) string {
	v, _ := ctx.Value(csrfContextKey).(string)
	return v
}
