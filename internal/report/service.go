// Package report はレポートの生成と履歴分析のビジネスロジックを提供する。
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/insight"
	"github.com/prashantbhardwaj30/architek-app/internal/llm"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
	"github.com/prashantbhardwaj30/architek-app/internal/repository"
	"github.com/prashantbhardwaj30/architek-app/internal/security"
)

// dealFlowLookback はディールフロー分析で参照する直近レポートの件数。
const dealFlowLookback = 50

// minReportsForDealFlow はディールフロー分析に必要な最小レポート数。
const minReportsForDealFlow = 3

// AdmissionController はレポート生成の入場判定と記録のインターフェース。
type AdmissionController interface {
	// CheckAdmission は本日の残り生成可能数を判定する。
	CheckAdmission(ctx context.Context, accountID string) (*model.AdmissionResult, error)

	// RecordAction は上限内であればアクションを1件記録する。
	// 上限到達時はDAILY_LIMIT_REACHEDエラーを返す。
	RecordAction(ctx context.Context, accountID, action string) error
}

// Service はレポート生成・履歴・ディールフロー分析のサービス。
type Service struct {
	accountRepo repository.AccountRepository
	reportRepo  repository.ReportRepository
	admission   AdmissionController
	validator   security.SourceValidatorService
	sanitizer   security.ContentSanitizerService
	generator   llm.Generator
	clk         clock.Clock
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	reportRepo repository.ReportRepository,
	admission AdmissionController,
	validator security.SourceValidatorService,
	sanitizer security.ContentSanitizerService,
	generator llm.Generator,
	clk clock.Clock,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		reportRepo:  reportRepo,
		admission:   admission,
		validator:   validator,
		sanitizer:   sanitizer,
		generator:   generator,
		clk:         clk,
	}
}

// Create は論文URLからレポートを生成して保存する。
// 処理順序は次の不変条件を守る:
//   - 生成に失敗した場合、クォータは消費されない
//   - クォータの確保（RecordAction）に成功した場合のみレポートが保存される
func (s *Service) Create(ctx context.Context, accountID, rawURL, role, industry string) (*model.Report, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}

	// 事前チェック: 上限到達が明らかな場合は生成前に拒否する。
	// 最終的な判定はRecordActionのトランザクションが行う。
	admission, err := s.admission.CheckAdmission(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !admission.Allowed {
		return nil, model.NewDailyLimitReachedError(admission.Limit)
	}

	source, err := s.validator.Validate(ctx, rawURL)
	if err != nil {
		return nil, model.NewInvalidSourceURLError(err.Error())
	}

	prompt := buildPrompt(role, industry, source, account.Tier)
	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		slog.Error("レポート生成に失敗しました",
			slog.String("account_id", accountID),
			slog.String("source_url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationFailedError(err.Error())
	}

	insights := s.sanitizer.Sanitize(generated)

	// クォータの確保。並行リクエストで残り枠を失った場合はここで拒否される。
	if err := s.admission.RecordAction(ctx, accountID, model.ActionReportGenerated); err != nil {
		return nil, err
	}

	contentHash := sha256.Sum256([]byte(insights))
	report := &model.Report{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		SourceURL:   rawURL,
		SourceType:  source.Platform,
		Role:        role,
		Industry:    industry,
		ContentHash: hex.EncodeToString(contentHash[:]),
		Insights:    insights,
		TimingScore: insight.TimingScore(insights, industry),
		Keywords:    insight.ExtractKeywords(insights),
		CreatedAt:   s.clk.Now().UTC(),
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("レポートの保存に失敗しました: %w", err)
	}

	slog.Info("レポートを生成しました",
		slog.String("report_id", report.ID),
		slog.String("account_id", accountID),
		slog.String("platform", source.Platform),
		slog.Int("timing_score", report.TimingScore),
	)
	return report, nil
}

// ListRecent は指定アカウントのレポートを新しい順に最大limit件返す。
func (s *Service) ListRecent(ctx context.Context, accountID string, limit int) ([]*model.Report, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}
	return s.reportRepo.ListRecentByAccount(ctx, accountID, limit)
}

// DealFlow はアカウントのレポート履歴から投資傾向を集計する。
// Enterprise限定機能。レポートが3件未満の場合はinsufficient_dataを返す。
func (s *Service) DealFlow(ctx context.Context, accountID string) (*model.DealFlowSummary, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}
	if !account.Tier.Limits().DealRadarEnabled {
		return nil, model.NewFeatureNotInTierError("Deal Flow Radar", account.Tier)
	}

	reports, err := s.reportRepo.ListRecentByAccount(ctx, accountID, dealFlowLookback)
	if err != nil {
		return nil, fmt.Errorf("レポート履歴の取得に失敗しました: %w", err)
	}
	if len(reports) < minReportsForDealFlow {
		return &model.DealFlowSummary{Status: model.SummaryStatusInsufficientData}, nil
	}

	keywordCounts := make(map[string]int)
	industryCounts := make(map[string]int)
	timingTotal := 0
	timingSamples := 0
	for _, r := range reports {
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				keywordCounts[kw]++
			}
		}
		if r.Industry != "" {
			industryCounts[r.Industry]++
		}
		if r.TimingScore > 0 {
			timingTotal += r.TimingScore
			timingSamples++
		}
	}

	trending := topCounts(keywordCounts, 10)
	industries := topCounts(industryCounts, 5)

	avgTiming := 50.0
	if timingSamples > 0 {
		avgTiming = float64(timingTotal) / float64(timingSamples)
	}
	avgTiming = math.Round(avgTiming*10) / 10

	var topKeyword, topIndustry string
	if len(trending) > 0 {
		topKeyword = trending[0].Name
	}
	if len(industries) > 0 {
		topIndustry = industries[0].Name
	}

	return &model.DealFlowSummary{
		Status:             model.SummaryStatusOK,
		TrendingKeywords:   trending,
		IndustryFocus:      industries,
		AverageTimingScore: avgTiming,
		ReportsAnalyzed:    len(reports),
		Recommendation:     insight.Recommendation(topKeyword, topIndustry, avgTiming),
	}, nil
}

// topCounts はカウントマップを件数の降順に並べ、上位limit件を返す。
// 同数の場合は名前の昇順で順序を安定させる。
func topCounts(counts map[string]int, limit int) []model.KeywordCount {
	entries := make([]model.KeywordCount, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, model.KeywordCount{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
