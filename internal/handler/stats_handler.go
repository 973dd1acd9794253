package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/clock"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// StatsSourceInterface は統計ハンドラーが必要とする集計インターフェース。
type StatsSourceInterface interface {
	// PlatformStats はプラットフォーム全体の統計値を集計して返す。
	PlatformStats(ctx context.Context, now time.Time) (*model.PlatformStats, error)
}

// StatsHandler はプラットフォーム統計のHTTPハンドラー。
type StatsHandler struct {
	source StatsSourceInterface
	clk    clock.Clock
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(source StatsSourceInterface, clk clock.Clock) *StatsHandler {
	return &StatsHandler{source: source, clk: clk}
}

// statsResponse はプラットフォーム統計のAPIレスポンス。
type statsResponse struct {
	TotalReports  int      `json:"total_reports"`
	ActiveUsers   int      `json:"active_users_7d"`
	ReportsToday  int      `json:"reports_today"`
	TopIndustries []string `json:"top_industries"`
}

// GetStats はプラットフォーム全体の統計を返す。
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.source.PlatformStats(r.Context(), h.clk.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	industries := stats.TopIndustries
	if industries == nil {
		industries = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		TotalReports:  stats.TotalReports,
		ActiveUsers:   stats.ActiveUsers,
		ReportsToday:  stats.ReportsToday,
		TopIndustries: industries,
	})
}

// Health はヘルスチェックエンドポイント。
// GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
