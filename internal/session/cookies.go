package session

import (
	"net/http"
)

// Cookie名。フロントエンドはcsrf_*とloginedをJavaScriptから読む。
const (
	AccessCookieName       = "access_token_cookie"
	RefreshCookieName      = "refresh_token_cookie"
	AccessCSRFCookieName   = "csrf_access_token"
	RefreshCSRFCookieName  = "csrf_refresh_token"
	LoginedCookieName      = "logined"
	CSRFHeaderName         = "X-CSRF-TOKEN"
	refreshCookiePath      = "/token/refresh"
	defaultCookiePath      = "/"
	loginedCookieValueTrue = "true"
)

// CookieConfig はCookie属性の設定。
type CookieConfig struct {
	Secure bool
	Domain string
}

// CookieWriter はセッショントークンをCookieとして読み書きする。
type CookieWriter struct {
	config CookieConfig
}

// NewCookieWriter はCookieWriterを生成する。
func NewCookieWriter(config CookieConfig) *CookieWriter {
	return &CookieWriter{config: config}
}

// SetLogin はログイン直後のCookie一式（両トークンとloginedフラグ）を設定する。
func (c *CookieWriter) SetLogin(w http.ResponseWriter, pair *TokenPair) {
	c.SetAccess(w, pair.Access)
	c.SetRefresh(w, pair.Refresh)
	c.set(w, LoginedCookieName, loginedCookieValueTrue, defaultCookiePath, int(pair.Refresh.TTL.Seconds()), false)
}

// SetAccess はアクセストークンとそのCSRF値のCookieを設定する。
func (c *CookieWriter) SetAccess(w http.ResponseWriter, token *Token) {
	maxAge := int(token.TTL.Seconds())
	c.set(w, AccessCookieName, token.Value, defaultCookiePath, maxAge, true)
	c.set(w, AccessCSRFCookieName, token.CSRF, defaultCookiePath, maxAge, false)
}

// SetRefresh はリフレッシュトークンとそのCSRF値のCookieを設定する。
// リフレッシュトークンは/token/refreshにのみ送信される。
// /token/refreshはGETのためcsrf_refresh_tokenはサーバーでは検証しない。
// 既存フロントエンドが前提とするCookie一式を維持するために発行する。
func (c *CookieWriter) SetRefresh(w http.ResponseWriter, token *Token) {
	maxAge := int(token.TTL.Seconds())
	c.set(w, RefreshCookieName, token.Value, refreshCookiePath, maxAge, true)
	c.set(w, RefreshCSRFCookieName, token.CSRF, defaultCookiePath, maxAge, false)
}

// Unset はセッション関連のCookieを全て削除する。
func (c *CookieWriter) Unset(w http.ResponseWriter) {
	c.set(w, AccessCookieName, "", defaultCookiePath, -1, true)
	c.set(w, RefreshCookieName, "", refreshCookiePath, -1, true)
	c.set(w, AccessCSRFCookieName, "", defaultCookiePath, -1, false)
	c.set(w, RefreshCSRFCookieName, "", defaultCookiePath, -1, false)
	c.set(w, LoginedCookieName, "", defaultCookiePath, -1, false)
}

func (c *CookieWriter) set(w http.ResponseWriter, name, value, path string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.config.Domain,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AccessTokenFromRequest はアクセストークンCookieの値を返す。無ければ空文字。
func AccessTokenFromRequest(r *http.Request) string {
	return cookieValue(r, AccessCookieName)
}

// RefreshTokenFromRequest はリフレッシュトークンCookieの値を返す。無ければ空文字。
func RefreshTokenFromRequest(r *http.Request) string {
	return cookieValue(r, RefreshCookieName)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
