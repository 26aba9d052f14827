// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値。
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証層およびミドルウェア層から利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordTokenVerification(result string)
	RecordRateLimitRejection(route string)
	RecordSessionFallback()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginTotal         *prometheus.CounterVec
	tokenVerifications *prometheus.CounterVec
	ratelimitRejects   *prometheus.CounterVec
	sessionFallback    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiawase_login_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		tokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiawase_token_verifications_total",
			Help: "トークン検証の結果別合計数",
		}, []string{"result"}),
		ratelimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiawase_ratelimit_rejections_total",
			Help: "レート制限による拒否のルート別合計数",
		}, []string{"route"}),
		sessionFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiawase_session_fallback_total",
			Help: "永続セッションフォールバックで認証されたリクエストの合計数",
		}),
	}

	reg.MustRegister(
		c.loginTotal,
		c.tokenVerifications,
		c.ratelimitRejects,
		c.sessionFallback,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.loginTotal.WithLabelValues(result).Inc()
}

// RecordTokenVerification はトークン検証の結果を記録する。
func (c *Collector) RecordTokenVerification(result string) {
	c.tokenVerifications.WithLabelValues(result).Inc()
}

// RecordRateLimitRejection はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimitRejection(route string) {
	c.ratelimitRejects.WithLabelValues(route).Inc()
}

// RecordSessionFallback はセッションフォールバックによる認証を記録する。
func (c *Collector) RecordSessionFallback() {
	c.sessionFallback.Inc()
}

var _ MetricsCollector = (*Collector)(nil)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
