package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/session"
)

// NewCSRFMiddleware はダブルサブミット方式のCSRF検証ミドルウェアを返す。
// セッションミドルウェアの後に配置する。
// 状態変更メソッド（POST, PUT, PATCH, DELETE）では、X-CSRF-TOKENヘッダーが
// アクセストークンのcsrfクレームと一致しなければ403を返す。
// フロントエンドはcsrf_access_token Cookieの値をヘッダーに載せる。
func NewCSRFMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			expected := csrfFromContext(r.Context())
			headerToken := r.Header.Get(session.CSRFHeaderName)

			if expected == "" || headerToken == "" {
				slog.Warn("CSRF validation failed: missing token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFError())
				return
			}

			if subtle.ConstantTimeCompare([]byte(expected), []byte(headerToken)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
