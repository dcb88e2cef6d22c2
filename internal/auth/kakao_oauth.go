package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/hitoshi/kdiary/internal/metrics"
	"github.com/hitoshi/kdiary/internal/model"
)

const (
	defaultKakaoAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	defaultKakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

	defaultKakaoTimeout       = 10 * time.Second
	defaultBreakerFailures    = 5
	defaultBreakerOpenTimeout = 30 * time.Second
)

// メトリクスのendpointラベル
const (
	endpointToken   = "token"
	endpointRefresh = "refresh"
	endpointProfile = "profile"
)

// KakaoOAuthConfig はKakao OAuthプロバイダーの設定。
type KakaoOAuthConfig struct {
	ClientID     string
	ClientSecret string // 空の場合は送信しない
	RedirectURI  string
	Timeout      time.Duration

	// 連続失敗がBreakerFailures回に達するとBreakerOpenTimeoutの間リクエストを遮断する
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// KakaoOAuthProvider はKakao OAuth 2.0による認証を提供する。
// 呼び出しごとに状態を持たず、サーキットブレーカーのみ共有する。
type KakaoOAuthProvider struct {
	config  KakaoOAuthConfig
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	metrics metrics.MetricsCollector
}

// providerRejectedError はIdPが4xxでリクエストを拒否したことを表す。
// 呼び出し側の誤りなのでブレーカーの失敗には数えない。
type providerRejectedError struct {
	endpoint string
	status   int
	body     string
}

func (e *providerRejectedError) Error() string {
	return fmt.Sprintf("%s request rejected with status %d: %s", e.endpoint, e.status, e.body)
}

// callerAbortedError は呼び出し元のコンテキストが終了したためリクエストが中断されたことを表す。
// IdPの障害ではないのでブレーカーの失敗には数えない。
type callerAbortedError struct {
	endpoint string
	err      error
}

func (e *callerAbortedError) Error() string {
	return fmt.Sprintf("%s request aborted by caller: %v", e.endpoint, e.err)
}

func (e *callerAbortedError) Unwrap() error {
	return e.err
}

// NewKakaoOAuthProvider はKakaoOAuthProviderを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewKakaoOAuthProvider(config KakaoOAuthConfig, collector metrics.MetricsCollector) *KakaoOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultKakaoAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultKakaoTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultKakaoUserInfoURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultKakaoTimeout
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = defaultBreakerFailures
	}
	if config.BreakerOpenTimeout <= 0 {
		config.BreakerOpenTimeout = defaultBreakerOpenTimeout
	}

	failures := config.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kakao",
		MaxRequests: 1,
		Timeout:     config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &KakaoOAuthProvider{
		config:  config,
		client:  resty.New().SetTimeout(config.Timeout),
		breaker: breaker,
		metrics: collector,
	}
}

// isBreakerSuccess はIdPが健全とみなせる結果かどうかを判定する。
// 4xxと呼び出し元の中断はIdPの障害ではない。
func isBreakerSuccess(err error) bool {
	var rejected *providerRejectedError
	var aborted *callerAbortedError
	return err == nil || errors.As(err, &rejected) || errors.As(err, &aborted)
}

// GetLoginURL はKakaoの認可URLを生成する。
func (p *KakaoOAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURI},
		"response_type": {"code"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// kakaoTokenResponse はKakaoのトークンエンドポイントのレスポンス。
type kakaoTokenResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
	Scope                 string `json:"scope"`
}

// kakaoUserResponse はKakaoのユーザー情報エンドポイントのレスポンス。
// プロフィールはkakao_account.profileを優先し、無ければpropertiesを使う。
type kakaoUserResponse struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname       string `json:"nickname"`
		ProfileImage   string `json:"profile_image"`
		ThumbnailImage string `json:"thumbnail_image"`
	} `json:"properties"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname          string `json:"nickname"`
			ProfileImageURL   string `json:"profile_image_url"`
			ThumbnailImageURL string `json:"thumbnail_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// ExchangeCode は認可コードをIdPのトークンに交換する。
func (p *KakaoOAuthProvider) ExchangeCode(ctx context.Context, code string) (*model.ProviderTokenSet, error) {
	form := map[string]string{
		"grant_type":   "authorization_code",
		"client_id":    p.config.ClientID,
		"redirect_uri": p.config.RedirectURI,
		"code":         code,
	}
	return p.requestToken(ctx, endpointToken, form)
}

// RefreshToken はIdPのリフレッシュトークンで新しいトークンを取得する。
func (p *KakaoOAuthProvider) RefreshToken(ctx context.Context, refreshToken string) (*model.ProviderTokenSet, error) {
	form := map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     p.config.ClientID,
		"refresh_token": refreshToken,
	}
	return p.requestToken(ctx, endpointRefresh, form)
}

func (p *KakaoOAuthProvider) requestToken(ctx context.Context, endpoint string, form map[string]string) (*model.ProviderTokenSet, error) {
	if p.config.ClientSecret != "" {
		form["client_secret"] = p.config.ClientSecret
	}

	var tokenResp kakaoTokenResponse
	err := p.call(ctx, endpoint, &tokenResp, func() (*resty.Response, error) {
		return p.client.R().
			SetContext(ctx).
			SetFormData(form).
			Post(p.config.TokenURL)
	})
	if err != nil {
		return nil, err
	}

	if tokenResp.AccessToken == "" {
		return nil, model.NewUpstreamError(fmt.Errorf("empty access token in %s response", endpoint))
	}

	return &model.ProviderTokenSet{
		AccessToken:           tokenResp.AccessToken,
		TokenType:             tokenResp.TokenType,
		RefreshToken:          tokenResp.RefreshToken,
		ExpiresIn:             tokenResp.ExpiresIn,
		RefreshTokenExpiresIn: tokenResp.RefreshTokenExpiresIn,
		Scope:                 tokenResp.Scope,
	}, nil
}

// FetchProfile はアクセストークンでKakaoのユーザー情報を取得する。
func (p *KakaoOAuthProvider) FetchProfile(ctx context.Context, accessToken string) (*model.ProviderProfile, error) {
	var userResp kakaoUserResponse
	err := p.call(ctx, endpointProfile, &userResp, func() (*resty.Response, error) {
		return p.client.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			Get(p.config.UserInfoURL)
	})
	if err != nil {
		return nil, err
	}

	if userResp.ID == 0 {
		return nil, model.NewUpstreamError(fmt.Errorf("empty id in profile response"))
	}

	return toProviderProfile(&userResp), nil
}

func toProviderProfile(u *kakaoUserResponse) *model.ProviderProfile {
	account := u.KakaoAccount.Profile
	return &model.ProviderProfile{
		ID:        u.ID,
		Nickname:  firstNonEmpty(account.Nickname, u.Properties.Nickname),
		Profile:   firstNonEmpty(account.ProfileImageURL, u.Properties.ProfileImage),
		Thumbnail: firstNonEmpty(account.ThumbnailImageURL, u.Properties.ThumbnailImage),
		Email:     u.KakaoAccount.Email,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// call はブレーカー越しにリクエストを送り、成功時はJSONをoutに読み込む。
// 4xxはAUTH_FAILED、それ以外の失敗はUPSTREAM_FAILEDに変換する。
// ctxのキャンセル・期限切れによる失敗はブレーカーに数えない。
// restyのタイムアウトはctxに現れないため、IdPの遅延として失敗に数える。
func (p *KakaoOAuthProvider) call(ctx context.Context, endpoint string, out any, send func() (*resty.Response, error)) error {
	start := time.Now()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := send()
		if err != nil {
			if ctx.Err() != nil {
				return nil, &callerAbortedError{endpoint: endpoint, err: err}
			}
			return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return nil, &providerRejectedError{endpoint: endpoint, status: resp.StatusCode(), body: resp.String()}
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", endpoint, err)
		}
		return nil, nil
	})

	outcome := metrics.OutcomeSuccess
	var rejected *providerRejectedError
	var aborted *callerAbortedError
	switch {
	case err == nil:
	case errors.As(err, &aborted):
		outcome = metrics.OutcomeCanceled
		err = model.NewUpstreamError(err)
	case errors.As(err, &rejected):
		outcome = metrics.OutcomeClientError
		err = model.NewAuthError("Kakao rejected the request", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeBreakerOpen
		err = model.NewUpstreamError(err)
	default:
		outcome = metrics.OutcomeUpstream
		err = model.NewUpstreamError(err)
	}

	if p.metrics != nil {
		p.metrics.RecordProviderRequest(endpoint, outcome, time.Since(start))
	}
	return err
}

// compile-time interface check
var _ OAuthProvider = (*KakaoOAuthProvider)(nil)
