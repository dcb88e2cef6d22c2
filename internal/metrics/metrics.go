// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// IdPリクエスト結果のラベル値
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeUpstream    = "upstream_error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeCanceled    = "canceled"
)

// 日記書き込み操作のラベル値
const (
	DiaryOpCreate = "create"
	DiaryOpUpdate = "update"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、IdPクライアント、ミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordProviderRequest(endpoint, outcome string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordDiaryWrite(op string)
	RecordPanic(route string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins           *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  prometheus.Histogram
	httpStatus       *prometheus.CounterVec
	diaryWrites      *prometheus.CounterVec
	panics           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdiary_logins_total",
			Help: "ログイン試行の結果別の合計数",
		}, []string{"result"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdiary_provider_requests_total",
			Help: "IdPへのリクエストのエンドポイント・結果別の合計数",
		}, []string{"endpoint", "outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kdiary_provider_latency_seconds",
			Help:    "IdPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdiary_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		diaryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdiary_diary_writes_total",
			Help: "日記の書き込み操作別の合計数",
		}, []string{"op"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdiary_http_panics_total",
			Help: "ハンドラーでrecoverしたpanicのルート別の合計数",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.logins,
		c.providerRequests,
		c.providerLatency,
		c.httpStatus,
		c.diaryWrites,
		c.panics,
	)

	return c
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordProviderRequest はIdPへのリクエスト結果とレイテンシを記録する。
func (c *Collector) RecordProviderRequest(endpoint, outcome string, duration time.Duration) {
	c.providerRequests.WithLabelValues(endpoint, outcome).Inc()
	c.providerLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordDiaryWrite は日記の書き込みを記録する。
func (c *Collector) RecordDiaryWrite(op string) {
	c.diaryWrites.WithLabelValues(op).Inc()
}

// RecordPanic はrecoverしたpanicをルートパターン単位で記録する。
func (c *Collector) RecordPanic(route string) {
	c.panics.WithLabelValues(route).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
