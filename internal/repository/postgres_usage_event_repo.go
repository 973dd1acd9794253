package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// PostgresUsageEventRepo はPostgreSQLを使用した利用イベントリポジトリ。
// usage_eventsテーブルは追記専用であり、DELETE・UPDATEは発行しない。
type PostgresUsageEventRepo struct {
	db *sql.DB
}

// NewPostgresUsageEventRepo はPostgresUsageEventRepoを生成する。
func NewPostgresUsageEventRepo(db *sql.DB) *PostgresUsageEventRepo {
	return &PostgresUsageEventRepo{db: db}
}

// CountByAccountInRange は指定アカウント・アクションのイベント数を
// [from, to) の半開区間で数える。
func (r *PostgresUsageEventRepo) CountByAccountInRange(ctx context.Context, accountID, action string, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_events
		 WHERE account_id = $1 AND action = $2 AND occurred_at >= $3 AND occurred_at < $4`,
		accountID, action, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage events: %w", err)
	}

	return count, nil
}

// AppendWithinLimit は上限チェックとイベント追記を同一トランザクションで実行する。
// アカウント行をFOR UPDATEでロックすることで、同一アカウントに対する
// 並行呼び出しを直列化する。残り1枠への並行リクエストは必ず
// 片方だけが追記に成功し、もう片方はfalseを受け取る。
func (r *PostgresUsageEventRepo) AppendWithinLimit(ctx context.Context, event *model.UsageEvent, limit int, from, to time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// アカウント行のロック。同一アカウントのAppendWithinLimitを直列化する。
	var lockedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`,
		event.AccountID,
	).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("account not found: %s", event.AccountID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock account row: %w", err)
	}

	// ロック取得後に再カウントする。カウントと追記が原子的になる。
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_events
		 WHERE account_id = $1 AND action = $2 AND occurred_at >= $3 AND occurred_at < $4`,
		event.AccountID, event.Action, from, to,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count usage events in transaction: %w", err)
	}

	if count >= limit {
		// 上限到達。追記せずにコミットして枠を解放する。
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO usage_events (id, account_id, action, occurred_at)
		 VALUES ($1, $2, $3, $4)`,
		event.ID, event.AccountID, event.Action, event.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert usage event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// ListRecentByAccount は指定アカウントの直近のイベントを新しい順に最大limit件返す。
func (r *PostgresUsageEventRepo) ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]*model.UsageEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, action, occurred_at FROM usage_events
		 WHERE account_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	defer rows.Close()

	var events []*model.UsageEvent
	for rows.Next() {
		event := &model.UsageEvent{}
		if err := rows.Scan(&event.ID, &event.AccountID, &event.Action, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage events: %w", err)
	}

	return events, nil
}

// compile-time interface check
var _ UsageEventRepository = (*PostgresUsageEventRepo)(nil)
