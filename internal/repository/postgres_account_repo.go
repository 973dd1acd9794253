package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// UpsertByFingerprint はフィンガープリントでアカウントを解決する。
// INSERT ... ON CONFLICT を単一文で実行するため、並行した初回解決でも
// 同一フィンガープリントに対して重複アカウントは作成されない。
// 衝突時はlast_active_atのみを更新し、既存行のid・tier・created_atを返す。
func (r *PostgresAccountRepo) UpsertByFingerprint(ctx context.Context, account *model.Account) (*model.Account, error) {
	resolved := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (id, credential_fingerprint, tier, created_at, last_active_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (credential_fingerprint)
		 DO UPDATE SET last_active_at = EXCLUDED.last_active_at
		 RETURNING id, credential_fingerprint, tier, created_at, last_active_at`,
		account.ID, account.CredentialFingerprint, string(account.Tier),
		account.CreatedAt, account.LastActiveAt,
	).Scan(
		&resolved.ID, &resolved.CredentialFingerprint, &resolved.Tier,
		&resolved.CreatedAt, &resolved.LastActiveAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return resolved, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, credential_fingerprint, tier, created_at, last_active_at
		 FROM accounts WHERE id = $1`,
		id,
	).Scan(
		&account.ID, &account.CredentialFingerprint, &account.Tier,
		&account.CreatedAt, &account.LastActiveAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
