package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// fakeWaitlistService はWaitlistServiceInterfaceのテスト用モック。
type fakeWaitlistService struct {
	joinFunc func(ctx context.Context, email, source, tierInterest string) error
	joined   []string
}

func (f *fakeWaitlistService) Join(ctx context.Context, email, source, tierInterest string) error {
	if f.joinFunc != nil {
		return f.joinFunc(ctx, email, source, tierInterest)
	}
	f.joined = append(f.joined, email)
	return nil
}

var _ WaitlistServiceInterface = (*fakeWaitlistService)(nil)

// TestJoinWaitlist_Success は登録成功時に201が返ることを検証する。
func TestJoinWaitlist_Success(t *testing.T) {
	service := &fakeWaitlistService{}
	h := NewWaitlistHandler(service)

	body, _ := json.Marshal(joinWaitlistRequest{
		Email:        "lead@example.com",
		Source:       "pricing_page",
		TierInterest: "pro",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.JoinWaitlist(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if len(service.joined) != 1 || service.joined[0] != "lead@example.com" {
		t.Errorf("joined = %v, want [lead@example.com]", service.joined)
	}
}

// TestJoinWaitlist_InvalidEmail_Returns400 は不正なメールアドレスで400が返ることを検証する。
func TestJoinWaitlist_InvalidEmail_Returns400(t *testing.T) {
	service := &fakeWaitlistService{
		joinFunc: func(ctx context.Context, email, source, tierInterest string) error {
			return model.NewInvalidEmailError()
		},
	}
	h := NewWaitlistHandler(service)

	body, _ := json.Marshal(joinWaitlistRequest{Email: "not-an-email"})
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.JoinWaitlist(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var errBody apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errBody.Code != model.ErrCodeInvalidEmail {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeInvalidEmail)
	}
}

// TestJoinWaitlist_Duplicate_Returns409 は登録済みメールアドレスで409が返ることを検証する。
func TestJoinWaitlist_Duplicate_Returns409(t *testing.T) {
	service := &fakeWaitlistService{
		joinFunc: func(ctx context.Context, email, source, tierInterest string) error {
			return model.NewAlreadyOnWaitlistError()
		},
	}
	h := NewWaitlistHandler(service)

	body, _ := json.Marshal(joinWaitlistRequest{Email: "lead@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.JoinWaitlist(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	var errBody apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errBody.Code != model.ErrCodeAlreadyOnWaitlist {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeAlreadyOnWaitlist)
	}
}

// TestJoinWaitlist_InvalidJSON_Returns400 は不正なJSONボディで400が返ることを検証する。
func TestJoinWaitlist_InvalidJSON_Returns400(t *testing.T) {
	h := NewWaitlistHandler(&fakeWaitlistService{})

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", bytes.NewReader([]byte("{broken")))
	w := httptest.NewRecorder()

	h.JoinWaitlist(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}
