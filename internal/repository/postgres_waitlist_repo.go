package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// PostgresWaitlistRepo はPostgreSQLを使用したウェイトリストリポジトリ。
type PostgresWaitlistRepo struct {
	db *sql.DB
}

// NewPostgresWaitlistRepo はPostgresWaitlistRepoを生成する。
func NewPostgresWaitlistRepo(db *sql.DB) *PostgresWaitlistRepo {
	return &PostgresWaitlistRepo{db: db}
}

// Add はエントリを登録する。メールアドレスが登録済みの場合は
// ON CONFLICT DO NOTHINGにより何も挿入されず、falseを返す。
func (r *PostgresWaitlistRepo) Add(ctx context.Context, entry *model.WaitlistEntry) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (email, source, tier_interest, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		entry.Email, entry.Source, entry.TierInterest, entry.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert waitlist entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var _ WaitlistRepository = (*PostgresWaitlistRepo)(nil)
