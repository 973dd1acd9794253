package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/middleware"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// patternLookbackDefault はパターン分析で参照するイベント件数のデフォルト。
const patternLookbackDefault = 50

// QuotaServiceInterface はアカウントハンドラーが必要とする利用量サービスのインターフェース。
type QuotaServiceInterface interface {
	// CheckAdmission は本日の残り生成可能数を判定する。台帳は変更しない。
	CheckAdmission(ctx context.Context, accountID string) (*model.AdmissionResult, error)
	// AnalyzeUsagePattern は直近の利用イベントを集計する。
	AnalyzeUsagePattern(ctx context.Context, accountID string, lookback int) (*model.UsagePatternSummary, error)
}

// AccountHandler はアカウント情報・クォータ・利用パターンのHTTPハンドラー。
type AccountHandler struct {
	quota           QuotaServiceInterface
	patternLookback int
}

// NewAccountHandler はAccountHandlerを生成する。
// patternLookbackが0以下の場合はデフォルト値を使用する。
func NewAccountHandler(quota QuotaServiceInterface, patternLookback int) *AccountHandler {
	if patternLookback <= 0 {
		patternLookback = patternLookbackDefault
	}
	return &AccountHandler{quota: quota, patternLookback: patternLookback}
}

// accountResponse はアカウント情報のAPIレスポンス。
// クレデンシャルのフィンガープリントは返さない。
type accountResponse struct {
	ID              string `json:"id"`
	Tier            string `json:"tier"`
	ReportsPerDay   int    `json:"reports_per_day"`
	MaxPages        int    `json:"max_pages"`
	ExportEnabled   bool   `json:"export_enabled"`
	DealRadar       bool   `json:"deal_radar_enabled"`
	MonthlyPriceUSD int    `json:"monthly_price_usd"`
	CreatedAt       string `json:"created_at"`
}

// quotaResponse はクォータ状況のAPIレスポンス。
type quotaResponse struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	UsedToday int  `json:"used_today"`
}

// usagePatternResponse は利用パターン集計のAPIレスポンス。
type usagePatternResponse struct {
	Status         string         `json:"status"`
	EventsAnalyzed int            `json:"events_analyzed"`
	ActionCounts   map[string]int `json:"action_counts,omitempty"`
	FirstEventAt   string         `json:"first_event_at,omitempty"`
	LastEventAt    string         `json:"last_event_at,omitempty"`
	EventsPerDay   float64        `json:"events_per_day"`
}

// GetAccount は認証済みアカウントの情報を返す。
// GET /api/account
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	limits := account.Tier.Limits()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{
		ID:              account.ID,
		Tier:            string(account.Tier),
		ReportsPerDay:   limits.ReportsPerDay,
		MaxPages:        limits.MaxPages,
		ExportEnabled:   limits.ExportEnabled,
		DealRadar:       limits.DealRadarEnabled,
		MonthlyPriceUSD: account.Tier.MonthlyPriceUSD(),
		CreatedAt:       account.CreatedAt.Format(time.RFC3339),
	})
}

// GetQuota は本日のクォータ状況を返す。
// GET /api/quota
func (h *AccountHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	result, err := h.quota.CheckAdmission(r.Context(), account.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quotaResponse{
		Allowed:   result.Allowed,
		Remaining: result.Remaining,
		Limit:     result.Limit,
		UsedToday: result.UsedToday,
	})
}

// GetUsagePattern は直近の利用イベントの集計を返す。
// GET /api/usage/pattern
func (h *AccountHandler) GetUsagePattern(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	summary, err := h.quota.AnalyzeUsagePattern(r.Context(), account.ID, h.patternLookback)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := usagePatternResponse{
		Status:         summary.Status,
		EventsAnalyzed: summary.EventsAnalyzed,
		ActionCounts:   summary.ActionCounts,
		EventsPerDay:   summary.EventsPerDay,
	}
	if !summary.FirstEventAt.IsZero() {
		resp.FirstEventAt = summary.FirstEventAt.Format(time.RFC3339)
	}
	if !summary.LastEventAt.IsZero() {
		resp.LastEventAt = summary.LastEventAt.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
