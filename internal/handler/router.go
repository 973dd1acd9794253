package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/metrics"
	"github.com/prashantbhardwaj30/architek-app/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	AccountResolver   middleware.AccountResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	ReportService   ReportServiceInterface
	QuotaService    QuotaServiceInterface
	WaitlistService WaitlistServiceInterface
	StatsSource     StatsSourceInterface

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	Clock clock.Clock

	// パターン分析で遡るイベント件数。0以下はデフォルト値。
	PatternLookback int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → APIKey → RateLimit(General)
//
// ヘルスチェック、メトリクス、ウェイトリスト登録は認証不要ルートとして
// APIKeyミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	reportHandler := NewReportHandler(deps.ReportService, deps.Collector)
	accountHandler := NewAccountHandler(deps.QuotaService, deps.PatternLookback)
	waitlistHandler := NewWaitlistHandler(deps.WaitlistService)
	statsHandler := NewStatsHandler(deps.StatsSource, deps.Clock)

	// --- 認証不要のルート ---

	r.Get("/api/health", Health)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	r.Post("/api/waitlist", waitlistHandler.JoinWaitlist)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: APIKey → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPIKeyMiddleware(deps.AccountResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// アカウントとクォータ
		r.Get("/api/account", accountHandler.GetAccount)
		r.Get("/api/quota", accountHandler.GetQuota)
		r.Get("/api/usage/pattern", accountHandler.GetUsagePattern)

		// プラットフォーム統計
		r.Get("/api/stats", statsHandler.GetStats)

		// レポート管理
		r.Route("/api/reports", func(r chi.Router) {
			// POST /api/reports - レポート生成（生成専用レート制限を追加）
			r.With(deps.RateLimiter.ReportGenerationMiddleware()).Post("/", reportHandler.CreateReport)

			r.Get("/", reportHandler.ListReports)
			r.Get("/dealflow", reportHandler.DealFlow)
		})
	})

	return r
}
