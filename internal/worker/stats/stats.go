// Package stats はプラットフォーム統計の定期集計ジョブを提供する。
// 集計結果をPrometheusゲージに反映し、ダッシュボードから参照できるようにする。
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/metrics"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// StatsSource は統計ジョブが必要とする集計インターフェース。
// repository.StatsRepositoryの部分集合として定義する。
type StatsSource interface {
	// PlatformStats はプラットフォーム全体の統計値を集計して返す。
	PlatformStats(ctx context.Context, now time.Time) (*model.PlatformStats, error)
}

// StatsJob はプラットフォーム統計を定期的に集計してゲージに反映するジョブ。
// 集計は読み取り専用であり、何度実行しても副作用はない。
type StatsJob struct {
	source    StatsSource
	collector metrics.MetricsCollector
	logger    *slog.Logger
	clk       clock.Clock
}

// NewStatsJob は新しいStatsJobを生成する。
func NewStatsJob(source StatsSource, collector metrics.MetricsCollector, logger *slog.Logger, clk clock.Clock) *StatsJob {
	return &StatsJob{
		source:    source,
		collector: collector,
		logger:    logger,
		clk:       clk,
	}
}

// Start は指定間隔のティッカーで統計集計を起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *StatsJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("統計集計ジョブを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("統計集計の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("統計集計ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("統計集計の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は統計を1回集計してゲージに反映する。
func (j *StatsJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	stats, err := j.source.PlatformStats(ctx, j.clk.Now())
	if err != nil {
		return err
	}

	j.collector.SetPlatformStats(stats)

	j.logger.Info("統計集計が完了しました",
		slog.Int("total_reports", stats.TotalReports),
		slog.Int("active_users_7d", stats.ActiveUsers),
		slog.Int("reports_today", stats.ReportsToday),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
