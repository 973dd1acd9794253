// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/metrics"
	"github.com/prashantbhardwaj30/architek-app/internal/middleware"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// defaultListLimit はレポート一覧のデフォルト取得件数。
const defaultListLimit = 20

// maxListLimit はレポート一覧の最大取得件数。
const maxListLimit = 100

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// Create は論文URLからレポートを生成して保存する。
	Create(ctx context.Context, accountID, rawURL, role, industry string) (*model.Report, error)
	// ListRecent はアカウントの直近レポートを新しい順に返す。
	ListRecent(ctx context.Context, accountID string, limit int) ([]*model.Report, error)
	// DealFlow はレポート履歴から投資傾向を集計する。
	DealFlow(ctx context.Context, accountID string) (*model.DealFlowSummary, error)
}

// ReportHandler はレポート生成・履歴・ディールフロー分析のHTTPハンドラー。
type ReportHandler struct {
	service   ReportServiceInterface
	collector metrics.MetricsCollector
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface, collector metrics.MetricsCollector) *ReportHandler {
	return &ReportHandler{
		service:   service,
		collector: collector,
	}
}

// createReportRequest はレポート生成リクエストのボディ。
type createReportRequest struct {
	URL      string `json:"url"`
	Role     string `json:"role"`
	Industry string `json:"industry"`
}

// reportResponse はレポートのAPIレスポンス。
type reportResponse struct {
	ID          string   `json:"id"`
	SourceURL   string   `json:"source_url"`
	SourceType  string   `json:"source_type"`
	Role        string   `json:"role"`
	Industry    string   `json:"industry"`
	ContentHash string   `json:"content_hash"`
	Insights    string   `json:"insights"`
	TimingScore int      `json:"timing_score"`
	Keywords    []string `json:"keywords"`
	CreatedAt   string   `json:"created_at"`
}

// keywordCountResponse はキーワードと出現回数のAPIレスポンス。
type keywordCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// dealFlowResponse はディールフロー分析のAPIレスポンス。
type dealFlowResponse struct {
	Status             string                 `json:"status"`
	TrendingKeywords   []keywordCountResponse `json:"trending_keywords"`
	IndustryFocus      []keywordCountResponse `json:"industry_focus"`
	AverageTimingScore float64                `json:"average_timing_score"`
	ReportsAnalyzed    int                    `json:"reports_analyzed"`
	Recommendation     string                 `json:"recommendation"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateReport はレポート生成を処理する。
// POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSourceURLError("URLが空です"))
		return
	}

	start := time.Now()
	report, err := h.service.Create(r.Context(), account.ID, req.URL, req.Role, req.Industry)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case model.ErrCodeDailyLimitReached:
				h.collector.RecordAdmissionDenied(account.Tier)
			case model.ErrCodeGenerationFailed:
				h.collector.RecordGenerationFailure()
			}
		}
		handleServiceError(w, err)
		return
	}

	h.collector.RecordAdmissionAllowed(account.Tier)
	h.collector.RecordGenerationLatency(time.Since(start))
	h.collector.RecordEventAppended(model.ActionReportGenerated)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toReportResponse(report))
}

// ListReports はアカウントの直近レポート一覧を返す。
// GET /api/reports?limit=N
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "limitパラメータは1以上の整数で指定してください。",
				Category: "validation",
				Action:   "limitパラメータを確認してください。",
			})
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	reports, err := h.service.ListRecent(r.Context(), account.ID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, toReportResponse(report))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reports": responses,
		"count":   len(responses),
	})
}

// DealFlow はレポート履歴からの投資傾向分析を返す。
// GET /api/reports/dealflow
func (h *ReportHandler) DealFlow(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	summary, err := h.service.DealFlow(r.Context(), account.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDealFlowResponse(summary))
}

// --- ヘルパー関数 ---

// toReportResponse はmodel.ReportからAPIレスポンスに変換する。
func toReportResponse(report *model.Report) reportResponse {
	keywords := report.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return reportResponse{
		ID:          report.ID,
		SourceURL:   report.SourceURL,
		SourceType:  report.SourceType,
		Role:        report.Role,
		Industry:    report.Industry,
		ContentHash: report.ContentHash,
		Insights:    report.Insights,
		TimingScore: report.TimingScore,
		Keywords:    keywords,
		CreatedAt:   report.CreatedAt.Format(time.RFC3339),
	}
}

// toDealFlowResponse はmodel.DealFlowSummaryからAPIレスポンスに変換する。
func toDealFlowResponse(summary *model.DealFlowSummary) dealFlowResponse {
	keywords := make([]keywordCountResponse, 0, len(summary.TrendingKeywords))
	for _, kc := range summary.TrendingKeywords {
		keywords = append(keywords, keywordCountResponse{Name: kc.Name, Count: kc.Count})
	}
	industries := make([]keywordCountResponse, 0, len(summary.IndustryFocus))
	for _, kc := range summary.IndustryFocus {
		industries = append(industries, keywordCountResponse{Name: kc.Name, Count: kc.Count})
	}
	return dealFlowResponse{
		Status:             summary.Status,
		TrendingKeywords:   keywords,
		IndustryFocus:      industries,
		AverageTimingScore: summary.AverageTimingScore,
		ReportsAnalyzed:    summary.ReportsAnalyzed,
		Recommendation:     summary.Recommendation,
	}
}

// newInvalidRequestError はリクエストボディ解析失敗のエラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeUnauthorizedResponse は認証切れのレスポンスを書き込む。
// APIキーミドルウェアを通過していれば到達しない。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "X-API-Keyヘッダーを設定してください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredential, model.ErrCodeAccountNotFound:
		return http.StatusUnauthorized
	case model.ErrCodeDailyLimitReached:
		return http.StatusTooManyRequests
	case model.ErrCodeFeatureNotInTier:
		return http.StatusForbidden
	case model.ErrCodeInvalidSourceURL, model.ErrCodeInvalidEmail:
		return http.StatusBadRequest
	case model.ErrCodeAlreadyOnWaitlist:
		return http.StatusConflict
	case model.ErrCodeGenerationFailed:
		return http.StatusBadGateway
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
