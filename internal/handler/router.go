package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kdiary/internal/metrics"
	"github.com/hitoshi/kdiary/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	Verifier      middleware.AccessVerifier
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker

	// 認証
	AuthService     AuthServiceInterface
	AccessRefresher AccessRefresher
	AuthConfig      AuthHandlerConfig

	// ユーザー
	UserService UserServiceInterface

	// 日記
	DiaryService DiaryServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → Session → CSRF(日記のみ)
//
// 認証ルート（/oauth/*, /token/*）はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(deps.Metrics))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))

	authHandler := NewAuthHandler(deps.AuthService, deps.AccessRefresher, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	diaryHandler := NewDiaryHandler(deps.DiaryService)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// OAuthフロー
	r.Route("/oauth", func(r chi.Router) {
		r.Get("/", authHandler.Callback)
		r.Get("/url", authHandler.LoginURL)
		r.Post("/refresh", authHandler.ProviderRefresh)
		r.Post("/userinfo", authHandler.ProviderUserInfo)
	})

	// セッショントークン管理
	r.Route("/token", func(r chi.Router) {
		r.Get("/refresh", authHandler.RefreshToken)
		r.Get("/remove", authHandler.RemoveToken)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Verifier))

		r.Get("/userinfo", userHandler.UserInfo)

		// 日記管理（状態変更リクエストはCSRFトークン必須）
		r.Route("/diary", func(r chi.Router) {
			r.Use(middleware.NewCSRFMiddleware())

			r.Post("/save", diaryHandler.Save)
			r.Get("/event", diaryHandler.ListByDate)
			r.Get("/events", diaryHandler.ListEvents)
			r.Put("/update/{id}", diaryHandler.Update)
		})
	})

	return r
}
