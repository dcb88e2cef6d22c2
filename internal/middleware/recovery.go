package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kdiary/internal/metrics"
)

// unmatchedRoute はchiのルートに一致しなかったリクエストのラベル値。
const unmatchedRoute = "unmatched"

// NewRecoveryMiddleware はpanicを500の統一エラーレスポンスに変換するミドルウェアを生成する。
// collectorが指定された場合はchiのルートパターン単位でpanicを記録する。
// http.ErrAbortHandlerはnet/httpの接続中断シグナルのため再panicする。
func NewRecoveryMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				route := routePattern(r)
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("route", route),
					slog.String("stack", string(debug.Stack())),
				)
				if collector != nil {
					collector.RecordPanic(route)
				}
				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// routePattern はリクエストが一致したchiのルートパターンを返す。
// 日記IDなどのパスパラメータをラベルに含めないため、生のパスは使わない。
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
