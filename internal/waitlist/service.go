// Package waitlist は上位プランへの関心登録のビジネスロジックを提供する。
package waitlist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
	"github.com/prashantbhardwaj30/architek-app/internal/repository"
)

// emailPattern は受け付けるメールアドレスの形式。
var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Service はウェイトリスト登録のサービス。
type Service struct {
	repo repository.WaitlistRepository
	clk  clock.Clock
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.WaitlistRepository, clk clock.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

// Join はメールアドレスをウェイトリストに登録する。
// メールアドレスは小文字に正規化して保存する。
// 形式が不正な場合はINVALID_EMAILを、登録済みの場合はALREADY_ON_WAITLISTを返す。
func (s *Service) Join(ctx context.Context, email, source, tierInterest string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return model.NewInvalidEmailError()
	}

	entry := &model.WaitlistEntry{
		Email:        email,
		Source:       source,
		TierInterest: tierInterest,
		CreatedAt:    s.clk.Now().UTC(),
	}
	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return fmt.Errorf("ウェイトリストへの登録に失敗しました: %w", err)
	}
	if !added {
		return model.NewAlreadyOnWaitlistError()
	}

	slog.Info("ウェイトリストに登録しました",
		slog.String("source", source),
		slog.String("tier_interest", tierInterest),
	)
	return nil
}
