// Package account はAPIキーからのアカウント解決とTier管理のドメインロジックを提供する。
package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/metrics"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
	"github.com/prashantbhardwaj30/architek-app/internal/repository"
)

// fingerprintLength はフィンガープリントとして保存するhex文字数。
const fingerprintLength = 32

// Service はアカウント管理のサービス層。
// APIキーの解決・新規作成とTier参照のビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	clk         clock.Clock
	collector   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accountRepo repository.AccountRepository, clk clock.Clock, collector metrics.MetricsCollector) *Service {
	return &Service{
		accountRepo: accountRepo,
		clk:         clk,
		collector:   collector,
	}
}

// Fingerprint は生のAPIキーから一方向フィンガープリントを計算する。
// SHA-256ハッシュのhex表現の先頭32文字。同一キーは常に同一値になる。
func Fingerprint(rawCredential string) string {
	sum := sha256.Sum256([]byte(rawCredential))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// ResolveOrCreate は生のAPIキーからアカウントを解決する。
// 未登録の場合はTier=freeの新規アカウントを作成し、登録済みの場合は
// last_active_atを更新して既存アカウントを返す。
// 生のキーは保存されず、フィンガープリントのみが永続化される。
// 同一キーに対する解決は、プロセス再起動をまたいでも常に同一のIDを返す。
func (s *Service) ResolveOrCreate(ctx context.Context, rawCredential string) (*model.Account, error) {
	if strings.TrimSpace(rawCredential) == "" {
		return nil, model.NewInvalidCredentialError("空の値は使用できません")
	}

	now := s.clk.Now().UTC()
	candidate := &model.Account{
		ID:                    uuid.New().String(),
		CredentialFingerprint: Fingerprint(rawCredential),
		Tier:                  model.TierFree,
		CreatedAt:             now,
		LastActiveAt:          now,
	}

	resolved, err := s.accountRepo.UpsertByFingerprint(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("アカウントの解決に失敗しました: %w", err)
	}

	if resolved.ID == candidate.ID {
		s.collector.RecordAccountCreated(resolved.Tier)
		slog.Info("account created",
			slog.String("account_id", resolved.ID),
			slog.String("tier", string(resolved.Tier)),
		)
	}

	return resolved, nil
}

// GetTier は指定アカウントのTierを返す。
// アカウントが存在しない場合はAccountNotFoundエラーを返す。
// ストア障害をfreeティアとして扱うことはしない。
func (s *Service) GetTier(ctx context.Context, accountID string) (model.Tier, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if acct == nil {
		return "", model.NewAccountNotFoundError(accountID)
	}

	return acct.Tier, nil
}
