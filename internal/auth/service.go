// Package auth はKakao OAuthによるログインフローを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hitoshi/kdiary/internal/metrics"
	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/session"
)

// OAuthProvider はIdPクライアントのインターフェース。
type OAuthProvider interface {
	// GetLoginURL は認可URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをIdPのトークンに交換する。
	ExchangeCode(ctx context.Context, code string) (*model.ProviderTokenSet, error)
	// FetchProfile はIdPのアクセストークンでプロフィールを取得する。
	FetchProfile(ctx context.Context, accessToken string) (*model.ProviderProfile, error)
	// RefreshToken はIdPのリフレッシュトークンでトークンを再取得する。
	RefreshToken(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error)
}

// UserUpserter はログイン時のユーザー登録・更新インターフェース。
type UserUpserter interface {
	Upsert(ctx context.Context, profile *model.ProviderProfile) (*model.User, error)
}

// TokenIssuer はセッショントークンの発行インターフェース。
type TokenIssuer interface {
	Issue(userID int64) (*session.TokenPair, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth   OAuthProvider
	users   UserUpserter
	tokens  TokenIssuer
	metrics metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, users UserUpserter, tokens TokenIssuer, collector metrics.MetricsCollector) *Service {
	return &Service{
		oauth:   oauth,
		users:   users,
		tokens:  tokens,
		metrics: collector,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理する。
// 認可コードの交換、プロフィール取得、ユーザーのupsertを行い、セッショントークンを発行する。
// いずれかの段階で失敗した場合、ユーザーは作成されずトークンも発行されない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.User, *session.TokenPair, error) {
	user, pair, err := s.login(ctx, code)
	if err != nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, err
	}
	s.recordLogin(metrics.LoginSuccess)

	slog.Info("user logged in",
		slog.String("user_id", strconv.FormatInt(user.ID, 10)),
	)
	return user, pair, nil
}

func (s *Service) login(ctx context.Context, code string) (*model.User, *session.TokenPair, error) {
	if code == "" {
		return nil, nil, model.NewValidationError("Authorization code is missing")
	}

	// 1. 認可コードをトークンに交換
	tokens, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. プロフィールを取得
	profile, err := s.oauth.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	// 3. ユーザーをupsert
	user, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	// 4. セッショントークンを発行
	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session tokens: %w", err)
	}

	return user, pair, nil
}

// RefreshProviderToken はIdPのリフレッシュトークンを中継する。
func (s *Service) RefreshProviderToken(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error) {
	if refreshToken == "" {
		return nil, model.NewValidationError("refresh_token is required")
	}
	tokens, err := s.oauth.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh provider token: %w", err)
	}
	return tokens, nil
}

// ProviderProfile はIdPのアクセストークンでプロフィールを中継する。
func (s *Service) ProviderProfile(ctx context.Context, accessToken string) (*model.ProviderProfile, error) {
	if accessToken == "" {
		return nil, model.NewValidationError("access_token is required")
	}
	profile, err := s.oauth.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider profile: %w", err)
	}
	return profile, nil
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}
