package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// WaitlistServiceInterface はウェイトリストハンドラーが必要とするサービスインターフェース。
type WaitlistServiceInterface interface {
	// Join はメールアドレスをウェイトリストに登録する。
	Join(ctx context.Context, email, source, tierInterest string) error
}

// WaitlistHandler はウェイトリスト登録のHTTPハンドラー。
// 認証不要の公開エンドポイントとして提供する。
type WaitlistHandler struct {
	service WaitlistServiceInterface
}

// NewWaitlistHandler はWaitlistHandlerを生成する。
func NewWaitlistHandler(service WaitlistServiceInterface) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

// joinWaitlistRequest はウェイトリスト登録リクエストのボディ。
type joinWaitlistRequest struct {
	Email        string `json:"email"`
	Source       string `json:"source"`
	TierInterest string `json:"tier_interest"`
}

// JoinWaitlist はウェイトリスト登録を処理する。
// POST /api/waitlist
func (h *WaitlistHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req joinWaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	if err := h.service.Join(r.Context(), req.Email, req.Source, req.TierInterest); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "joined"})
}
