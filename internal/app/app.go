package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/prashantbhardwaj30/architek-app/internal/account"
	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/config"
	"github.com/prashantbhardwaj30/architek-app/internal/database"
	"github.com/prashantbhardwaj30/architek-app/internal/handler"
	"github.com/prashantbhardwaj30/architek-app/internal/llm"
	"github.com/prashantbhardwaj30/architek-app/internal/logger"
	"github.com/prashantbhardwaj30/architek-app/internal/metrics"
	"github.com/prashantbhardwaj30/architek-app/internal/middleware"
	"github.com/prashantbhardwaj30/architek-app/internal/report"
	"github.com/prashantbhardwaj30/architek-app/internal/repository"
	"github.com/prashantbhardwaj30/architek-app/internal/security"
	"github.com/prashantbhardwaj30/architek-app/internal/usage"
	"github.com/prashantbhardwaj30/architek-app/internal/waitlist"
	"github.com/prashantbhardwaj30/architek-app/internal/worker/cleanup"
	statsjob "github.com/prashantbhardwaj30/architek-app/internal/worker/stats"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("quota_timezone", cfg.QuotaTimezone),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	eventRepo := repository.NewPostgresUsageEventRepo(db)
	reportRepo := repository.NewPostgresReportRepo(db)
	statsRepo := repository.NewPostgresStatsRepo(db)
	waitlistRepo := repository.NewPostgresWaitlistRepo(db)

	// 3. メトリクスと時刻源の初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	clk := clock.New()

	// 4. セキュリティとLLMクライアントの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	validator := security.NewSourceValidator(ssrfGuard)
	generator := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMTimeout, slog.Default())

	// 5. ドメインサービスの初期化
	accountService := account.NewService(accountRepo, clk, collector)
	usageService := usage.NewService(accountRepo, eventRepo, clk, cfg.QuotaLocation)
	reportService := report.NewService(
		accountRepo, reportRepo, usageService,
		validator, sanitizer, generator, clk,
	)
	waitlistService := waitlist.NewService(waitlistRepo, clk)

	// 6. レート制限の構成（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitReportGen > 0 {
		rateLimiterCfg.ReportGenRate = rate.Limit(float64(cfg.RateLimitReportGen) / 60.0)
		rateLimiterCfg.ReportGenBurst = cfg.RateLimitReportGen
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		AccountResolver:   accountService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		ReportService:   reportService,
		QuotaService:    usageService,
		WaitlistService: waitlistService,
		StatsSource:     statsRepo,

		Collector: collector,
		Gatherer:  registry,

		Clock: clk,

		PatternLookback: cfg.PatternLookback,
	}

	router := handler.NewRouter(deps)

	// 8. 統計集計ジョブをバックグラウンドで起動（/metricsのゲージを更新する）
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	job := statsjob.NewStatsJob(statsRepo, collector, slog.Default(), clk)
	go job.Start(jobCtx, cfg.StatsRefreshInterval)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、統計集計ジョブを起動する。集計結果は専用の/metricsで公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. 依存の初期化
	statsRepo := repository.NewPostgresStatsRepo(db)
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	clk := clock.New()

	job := statsjob.NewStatsJob(statsRepo, collector, slog.Default(), clk)
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	// 3. メトリクスエンドポイントの公開
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}

	go func() {
		slog.Info("worker metrics server starting",
			slog.String("addr", metricsServer.Addr),
		)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("stats_interval", cfg.StatsRefreshInterval),
	)

	// 使用量イベントのクリーンアップジョブを日次で実行
	go func() {
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 統計集計ジョブをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.StatsRefreshInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/api/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
