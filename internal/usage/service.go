// Package usage は利用イベント台帳と日次クォータの入場判定ロジックを提供する。
//
// 日次カウンタは保存せず、常にイベント列への日付範囲クエリで導出する。
// 「1日」の境界は設定されたタイムゾーンの暦日で判定し、深夜0時に
// 明示的なリセット処理なしでカウントが自然にゼロへ戻る。
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
	"github.com/prashantbhardwaj30/architek-app/internal/repository"
)

// defaultPatternLookback はlookback未指定時に遡るイベント件数。
const defaultPatternLookback = 50

// Service は利用台帳と入場判定のサービス層。
type Service struct {
	accountRepo repository.AccountRepository
	eventRepo   repository.UsageEventRepository
	clk         clock.Clock
	loc         *time.Location
}

// NewService はServiceの新しいインスタンスを生成する。
// locは日次クォータの日付境界に使うタイムゾーン。nilの場合はUTC。
func NewService(
	accountRepo repository.AccountRepository,
	eventRepo repository.UsageEventRepository,
	clk clock.Clock,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		accountRepo: accountRepo,
		eventRepo:   eventRepo,
		clk:         clk,
		loc:         loc,
	}
}

// dayBounds はnowが属する暦日の [開始, 翌日開始) を設定タイムゾーンで返す。
func (s *Service) dayBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(s.loc)
	year, month, day := local.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// CheckAdmission は指定アカウントが本日もう1件レポートを生成できるかを判定する。
// 台帳を変更しない純粋な読み取りであり、何度呼んでも副作用はない。
// アカウントが存在しない場合はAccountNotFoundエラーを返す。
func (s *Service) CheckAdmission(ctx context.Context, accountID string) (*model.AdmissionResult, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if acct == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}

	limit := acct.Tier.Limits().ReportsPerDay
	from, to := s.dayBounds(s.clk.Now())

	count, err := s.eventRepo.CountByAccountInRange(ctx, accountID, model.ActionReportGenerated, from, to)
	if err != nil {
		return nil, fmt.Errorf("本日の利用回数の取得に失敗しました: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &model.AdmissionResult{
		Allowed:   count < limit,
		Remaining: remaining,
		Limit:     limit,
		UsedToday: count,
	}, nil
}

// RecordAction はクォータを消費するアクションの完了を1件記録する。
// 外部の生成処理が成功した後にのみ呼び出すこと。
//
// 記録時に上限チェックを同一トランザクションで再実行するため、
// CheckAdmissionとRecordActionの間に同一アカウントの並行リクエストが
// 割り込んでも、残り枠を超える記録は発生しない。枠が失われていた場合は
// DailyLimitReachedエラーを返す。
func (s *Service) RecordAction(ctx context.Context, accountID, action string) error {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if acct == nil {
		return model.NewAccountNotFoundError(accountID)
	}

	limit := acct.Tier.Limits().ReportsPerDay
	now := s.clk.Now()
	from, to := s.dayBounds(now)

	event := &model.UsageEvent{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Action:     action,
		OccurredAt: now.UTC(),
	}

	admitted, err := s.eventRepo.AppendWithinLimit(ctx, event, limit, from, to)
	if err != nil {
		return fmt.Errorf("利用イベントの記録に失敗しました: %w", err)
	}
	if !admitted {
		slog.Warn("usage event rejected at record time",
			slog.String("account_id", accountID),
			slog.String("action", action),
			slog.Int("limit", limit),
		)
		return model.NewDailyLimitReachedError(limit)
	}

	slog.Info("usage event recorded",
		slog.String("account_id", accountID),
		slog.String("action", action),
	)

	return nil
}

// AnalyzeUsagePattern は直近lookback件の利用イベントを新しい順に読み、
// 利用傾向の集計を返す。イベントが3件未満の場合は集計せず
// insufficient_dataステータスを返す。台帳は変更しない。
func (s *Service) AnalyzeUsagePattern(ctx context.Context, accountID string, lookback int) (*model.UsagePatternSummary, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if acct == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}

	if lookback <= 0 {
		lookback = defaultPatternLookback
	}

	events, err := s.eventRepo.ListRecentByAccount(ctx, accountID, lookback)
	if err != nil {
		return nil, fmt.Errorf("利用イベントの取得に失敗しました: %w", err)
	}

	if len(events) < model.MinEventsForPattern {
		return &model.UsagePatternSummary{
			Status:         model.SummaryStatusInsufficientData,
			EventsAnalyzed: len(events),
		}, nil
	}

	summary := &model.UsagePatternSummary{
		Status:         model.SummaryStatusOK,
		EventsAnalyzed: len(events),
		ActionCounts:   make(map[string]int),
		// eventsは新しい順のため、先頭が最新・末尾が最古。
		LastEventAt:  events[0].OccurredAt,
		FirstEventAt: events[len(events)-1].OccurredAt,
	}
	for _, event := range events {
		summary.ActionCounts[event.Action]++
	}

	spanDays := summary.LastEventAt.Sub(summary.FirstEventAt).Hours() / 24
	if spanDays < 1 {
		spanDays = 1
	}
	summary.EventsPerDay = float64(len(events)) / spanDays

	return summary, nil
}
