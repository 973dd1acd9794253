package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用したレポートリポジトリ。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

// Create はレポートを作成する。キーワードはカンマ区切りで保存する。
func (r *PostgresReportRepo) Create(ctx context.Context, report *model.Report) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports
		 (id, account_id, source_url, source_type, role, industry, content_hash, insights, timing_score, keywords, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.AccountID, report.SourceURL, report.SourceType,
		report.Role, report.Industry, report.ContentHash, report.Insights,
		report.TimingScore, strings.Join(report.Keywords, ","), report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// ListRecentByAccount は指定アカウントのレポートを新しい順に最大limit件返す。
func (r *PostgresReportRepo) ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, source_url, source_type, role, industry, content_hash, insights, timing_score, keywords, created_at
		 FROM reports
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		report := &model.Report{}
		var keywords string
		if err := rows.Scan(
			&report.ID, &report.AccountID, &report.SourceURL, &report.SourceType,
			&report.Role, &report.Industry, &report.ContentHash, &report.Insights,
			&report.TimingScore, &keywords, &report.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if keywords != "" {
			report.Keywords = strings.Split(keywords, ",")
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// compile-time interface check
var _ ReportRepository = (*PostgresReportRepo)(nil)
