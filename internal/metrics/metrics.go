// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー、サービス層、統計ワーカーから利用する。
type MetricsCollector interface {
	RecordAdmissionAllowed(tier model.Tier)
	RecordAdmissionDenied(tier model.Tier)
	RecordEventAppended(action string)
	RecordAccountCreated(tier model.Tier)
	RecordGenerationLatency(duration time.Duration)
	RecordGenerationFailure()
	SetPlatformStats(stats *model.PlatformStats)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	admissionAllowed  *prometheus.CounterVec
	admissionDenied   *prometheus.CounterVec
	eventsAppended    *prometheus.CounterVec
	accountsCreated   *prometheus.CounterVec
	generationLatency prometheus.Histogram
	generationFail    prometheus.Counter
	totalReports      prometheus.Gauge
	activeUsers       prometheus.Gauge
	reportsToday      prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		admissionAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "architek_admission_allowed_total",
			Help: "レポート生成の入場許可の合計数（Tier別）",
		}, []string{"tier"}),
		admissionDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "architek_admission_denied_total",
			Help: "日次上限による入場拒否の合計数（Tier別）",
		}, []string{"tier"}),
		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "architek_usage_events_total",
			Help: "記録された利用イベントの合計数（アクション別）",
		}, []string{"action"}),
		accountsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "architek_accounts_created_total",
			Help: "作成されたアカウントの合計数（Tier別）",
		}, []string{"tier"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "architek_generation_latency_seconds",
			Help:    "レポート生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		generationFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "architek_generation_fail_total",
			Help: "レポート生成失敗の合計数",
		}),
		totalReports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "architek_reports_total",
			Help: "プラットフォーム全体のレポート総数",
		}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "architek_active_users_7d",
			Help: "直近7日間のアクティブアカウント数",
		}),
		reportsToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "architek_reports_today",
			Help: "本日生成されたレポート数",
		}),
	}

	reg.MustRegister(
		c.admissionAllowed,
		c.admissionDenied,
		c.eventsAppended,
		c.accountsCreated,
		c.generationLatency,
		c.generationFail,
		c.totalReports,
		c.activeUsers,
		c.reportsToday,
	)

	return c
}

// RecordAdmissionAllowed は入場許可を記録する。
func (c *Collector) RecordAdmissionAllowed(tier model.Tier) {
	c.admissionAllowed.WithLabelValues(string(tier)).Inc()
}

// RecordAdmissionDenied は日次上限による入場拒否を記録する。
func (c *Collector) RecordAdmissionDenied(tier model.Tier) {
	c.admissionDenied.WithLabelValues(string(tier)).Inc()
}

// RecordEventAppended は利用イベントの記録を記録する。
func (c *Collector) RecordEventAppended(action string) {
	c.eventsAppended.WithLabelValues(action).Inc()
}

// RecordAccountCreated はアカウント作成を記録する。
func (c *Collector) RecordAccountCreated(tier model.Tier) {
	c.accountsCreated.WithLabelValues(string(tier)).Inc()
}

// RecordGenerationLatency はレポート生成のレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.generationLatency.Observe(duration.Seconds())
}

// RecordGenerationFailure はレポート生成失敗を記録する。
func (c *Collector) RecordGenerationFailure() {
	c.generationFail.Inc()
}

// SetPlatformStats はプラットフォーム統計のゲージを更新する。
// 統計ワーカーから定期的に呼び出される。
func (c *Collector) SetPlatformStats(stats *model.PlatformStats) {
	c.totalReports.Set(float64(stats.TotalReports))
	c.activeUsers.Set(float64(stats.ActiveUsers))
	c.reportsToday.Set(float64(stats.ReportsToday))
}

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
