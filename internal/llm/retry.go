package llm

import (
	"context"
	"time"
)

// callOutcome はLLM API呼び出し結果の分類。
type callOutcome int

const (
	// outcomeOK は呼び出し成功（200）。
	outcomeOK callOutcome = iota
	// outcomeRetry はリトライが必要なステータス（429/5xx）および一時的な通信エラー。
	outcomeRetry
	// outcomeFail はリトライしても回復しないステータス（4xxなど）。
	outcomeFail
)

const (
	// maxAttempts はGenerate 1回あたりの最大試行回数。
	maxAttempts = 3
	// initialBackoff は指数バックオフの初回遅延。
	initialBackoff = 200 * time.Millisecond
	// maxBackoff は指数バックオフの最大遅延。
	maxBackoff = 2 * time.Second
)

// classifyStatus はHTTPステータスコードを呼び出し結果に分類する。
// レート制限（429）とサーバーエラー（5xx）のみリトライ対象とする。
func classifyStatus(statusCode int) callOutcome {
	switch {
	case statusCode == 200:
		return outcomeOK
	case statusCode == 429:
		return outcomeRetry
	case statusCode >= 500:
		return outcomeRetry
	default:
		return outcomeFail
	}
}

// calculateBackoff は試行回数に基づいて指数バックオフ遅延を計算する。
// 初回200ms、2倍ずつ増加、最大2秒。
func calculateBackoff(attempt int) time.Duration {
	delay := initialBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// sleepWithContext はコンテキストのキャンセルを尊重して待機する。
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
