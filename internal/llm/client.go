// Package llm は外部LLMサービスによるレポート本文の生成機能を提供する。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// defaultModel はレポート生成に使用するモデル名。
const defaultModel = "gemini-1.5-flash"

// Generator はレポート本文の生成機能のインターフェースを定義する。
// レポート生成サービスから使用される。
type Generator interface {
	// Generate はプロンプトからレポート本文を生成する。
	// 生成失敗時はエラーを返す（呼び出し元がクォータ未消費を保証する）。
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client は外部LLM APIのクライアント。
// generateContentエンドポイントを使用してレポート本文を生成する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	apiKey     string
	model      string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      defaultModel,
	}
}

// generateRequest はgenerateContentエンドポイントのリクエストボディ。
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse はgenerateContentエンドポイントのレスポンスボディ。
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate はプロンプトからレポート本文を生成する。
// レート制限（429）とサーバーエラー（5xx）は指数バックオフで最大3回まで試行する。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストボディの構築に失敗しました: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var body []byte
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, calculateBackoff(attempt-1)); err != nil {
				return "", err
			}
		}

		body, lastErr = c.doGenerate(ctx, endpoint, payload)
		if lastErr == nil {
			break
		}
		var re *retryableError
		if !errors.As(lastErr, &re) {
			return "", lastErr
		}
	}
	if lastErr != nil {
		return "", lastErr
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("LLM APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("LLM APIのレスポンスに生成結果が含まれていません")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// retryableError はリトライ対象の呼び出し失敗を表す。
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// doGenerate はgenerateContentエンドポイントを1回呼び出し、レスポンスボディを返す。
// リトライ対象の失敗はretryableErrorでラップする。
func (c *Client) doGenerate(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LLM APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("model", c.model),
		)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()

	if outcome := classifyStatus(resp.StatusCode); outcome != outcomeOK {
		c.logger.Error("LLM APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("model", c.model),
		)
		statusErr := fmt.Errorf("LLM APIがステータス %d を返しました", resp.StatusCode)
		if outcome == outcomeRetry {
			return nil, &retryableError{err: statusErr}
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, nil
}
