// Package session はJWTによるステートレスなセッション管理を提供する。
//
// アクセストークンとリフレッシュトークンはHS256で署名され、Cookieで運ばれる。
// サーバー側にセッション状態は持たないため、ログアウトはCookieの削除のみで行う。
// 失効前のトークンは期限まで有効なままとなる。
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hitoshi/kdiary/internal/model"
)

// TokenType はトークンの種別を表す。
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	// ErrTokenExpired はトークンの有効期限切れを表す。
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid は署名不正・種別違い・発行者違いなどの不正なトークンを表す。
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims はセッショントークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
	CSRF string    `json:"csrf"`
}

// UserID はsubクレームをユーザーIDとして返す。
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return id, nil
}

// Token は署名済みトークンとCookie設定に必要な付随情報。
type Token struct {
	Value     string
	CSRF      string
	ExpiresAt time.Time
	TTL       time.Duration
}

// TokenPair はログイン時に発行するトークンの組。
type TokenPair struct {
	Access  *Token
	Refresh *Token
}

// ManagerConfig はManagerの設定。
type ManagerConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager はセッショントークンの発行と検証を行う。
// 状態を持たないため、複数goroutineから同時に使用できる。
type Manager struct {
	config ManagerConfig
	clock  clockwork.Clock
}

// NewManager はManagerを生成する。
func NewManager(config ManagerConfig, clock clockwork.Clock) *Manager {
	return &Manager{
		config: config,
		clock:  clock,
	}
}

// Issue はユーザーに対するアクセストークンとリフレッシュトークンを発行する。
func (m *Manager) Issue(userID int64) (*TokenPair, error) {
	access, err := m.sign(userID, TokenTypeAccess, m.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(userID, TokenTypeRefresh, m.config.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess はアクセストークンを検証してクレームを返す。
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, TokenTypeAccess)
}

// VerifyRefresh はリフレッシュトークンを検証してクレームを返す。
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, TokenTypeRefresh)
}

// RefreshAccess はリフレッシュトークンと同じユーザーに新しいアクセストークンを発行する。
// リフレッシュトークン自体はローテーションしない。
func (m *Manager) RefreshAccess(refreshToken string) (*Token, error) {
	claims, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, model.NewAuthError("Invalid token", fmt.Errorf("%w: %v", ErrTokenInvalid, err))
	}
	return m.sign(userID, TokenTypeAccess, m.config.AccessTTL)
}

func (m *Manager) sign(userID int64, typ TokenType, ttl time.Duration) (*Token, error) {
	now := m.clock.Now()
	expiresAt := now.Add(ttl)
	csrf := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: typ,
		CSRF: csrf,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return &Token{
		Value:     signed,
		CSRF:      csrf,
		ExpiresAt: expiresAt,
		TTL:       ttl,
	}, nil
}

func (m *Manager) verify(token string, want TokenType) (*Claims, error) {
	if token == "" {
		return nil, model.NewAuthError("Missing token", ErrTokenInvalid)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(m.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewAuthError("Token has expired", ErrTokenExpired)
		}
		return nil, model.NewAuthError("Invalid token", fmt.Errorf("%w: %v", ErrTokenInvalid, err))
	}

	if claims.Type != want {
		return nil, model.NewAuthError("Invalid token", fmt.Errorf("%w: want %s token, got %q", ErrTokenInvalid, want, claims.Type))
	}
	if _, err := claims.UserID(); err != nil {
		return nil, model.NewAuthError("Invalid token", fmt.Errorf("%w: %v", ErrTokenInvalid, err))
	}

	return claims, nil
}
