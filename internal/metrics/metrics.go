// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやミドルウェアから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
	RecordAuthFailure(kind string)
	RecordIdeaCreated()
	RecordIdeaDeleted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	requestDuration prometheus.Histogram
	authFailures    *prometheus.CounterVec
	ideasCreated    prometheus.Counter
	ideasDeleted    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorvault_http_requests_total",
			Help: "HTTPリクエストの合計数（メソッド・パス・ステータス別）",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "creatorvault_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorvault_auth_failures_total",
			Help: "トークン検証失敗の合計数（区分別）",
		}, []string{"kind"}),
		ideasCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creatorvault_ideas_created_total",
			Help: "作成されたアイデアの合計数",
		}),
		ideasDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creatorvault_ideas_deleted_total",
			Help: "削除されたアイデアの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.requestDuration,
		c.authFailures,
		c.ideasCreated,
		c.ideasDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
// pathにはカーディナリティを抑えるためルートパターン（/api/v1/{user_id}/ideasなど）を渡すこと。
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// RecordAuthFailure はトークン検証失敗を記録する。
// kindはmissing・malformed・signature・expired・claimsのいずれか。
func (c *Collector) RecordAuthFailure(kind string) {
	c.authFailures.WithLabelValues(kind).Inc()
}

// RecordIdeaCreated はアイデア作成を記録する。
func (c *Collector) RecordIdeaCreated() {
	c.ideasCreated.Inc()
}

// RecordIdeaDeleted はアイデア削除を記録する。
func (c *Collector) RecordIdeaDeleted() {
	c.ideasDeleted.Inc()
}

// metricsResponseWriter はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (mw *metricsResponseWriter) WriteHeader(code int) {
	if !mw.written {
		mw.statusCode = code
		mw.written = true
	}
	mw.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (mw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !mw.written {
		mw.statusCode = http.StatusOK
		mw.written = true
	}
	return mw.ResponseWriter.Write(b)
}

// HTTPMiddleware はリクエスト数と処理時間を記録するミドルウェアを返す。
// pathラベルにはchiのルートパターンを使う。実パスをそのまま使うと
// {user_id}や{id}の値ごとに時系列が増えてしまうため。
func (c *Collector) HTTPMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &metricsResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			// ルートパターンはハンドラー実行後に確定する
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			c.RecordHTTPRequest(r.Method, path, rec.statusCode, time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
