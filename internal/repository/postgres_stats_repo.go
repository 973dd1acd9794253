package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// PostgresStatsRepo はプラットフォーム統計の読み取り専用リポジトリ。
// reportsとusage_eventsの両テーブルにまたがる集計クエリを発行する。
type PostgresStatsRepo struct {
	db *sql.DB
}

// NewPostgresStatsRepo はPostgresStatsRepoを生成する。
func NewPostgresStatsRepo(db *sql.DB) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db}
}

// PlatformStats はプラットフォーム統計を集計して返す。
// 本日のレポート数の日付境界はnowの属するタイムゾーンで判定する。
func (r *PostgresStatsRepo) PlatformStats(ctx context.Context, now time.Time) (*model.PlatformStats, error) {
	stats := &model.PlatformStats{}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports`,
	).Scan(&stats.TotalReports); err != nil {
		return nil, fmt.Errorf("failed to count total reports: %w", err)
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT account_id) FROM usage_events WHERE occurred_at > $1`,
		weekAgo,
	).Scan(&stats.ActiveUsers); err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	year, month, day := now.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE created_at >= $1 AND created_at < $2`,
		dayStart, dayEnd,
	).Scan(&stats.ReportsToday); err != nil {
		return nil, fmt.Errorf("failed to count today's reports: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT industry, COUNT(*) AS cnt FROM reports
		 WHERE industry <> ''
		 GROUP BY industry ORDER BY cnt DESC LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list top industries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var industry string
		var cnt int
		if err := rows.Scan(&industry, &cnt); err != nil {
			return nil, fmt.Errorf("failed to scan industry row: %w", err)
		}
		stats.TopIndustries = append(stats.TopIndustries, industry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate industry rows: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ StatsRepository = (*PostgresStatsRepo)(nil)
