package middleware

import "net/http"

// hstsValue はStrict-Transport-Securityの値（max-age 1年）。
const hstsValue = "max-age=31536000; includeSubDomains"

// apiContentSecurityPolicy はJSONのみを返すAPI向けのCSP。
// ブラウザで直接開かれてもスクリプトや埋め込みを一切許可しない。
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// NewSecurityHeadersMiddleware はセキュリティ関連のレスポンスヘッダーを付与するミドルウェアを返す。
// httpsOnlyはBASE_URLがhttpsの場合にtrueとし、HSTSを付与する。
func NewSecurityHeadersMiddleware(httpsOnly bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", apiContentSecurityPolicy)
			h.Set("Referrer-Policy", "no-referrer")
			// 日記とトークンを含むレスポンスはキャッシュさせない
			h.Set("Cache-Control", "no-store")
			if httpsOnly {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			next.ServeHTTP(w, r)
		})
	}
}
