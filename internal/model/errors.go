// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, quota, report, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ErrCodeDailyLimitReached = "DAILY_LIMIT_REACHED"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeFeatureNotInTier  = "FEATURE_NOT_IN_TIER"
	ErrCodeInvalidSourceURL  = "INVALID_SOURCE_URL"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeInvalidEmail      = "INVALID_EMAIL"
	ErrCodeAlreadyOnWaitlist = "ALREADY_ON_WAITLIST"
)

// NewInvalidCredentialError は不正なクレデンシャルエラーを生成する。
func NewInvalidCredentialError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  fmt.Sprintf("APIキーが不正です: %s", reason),
		Category: "auth",
		Action:   "有効なAPIキーを入力してください。",
	}
}

// NewAccountNotFoundError はアカウント未検出エラーを生成する。
// 呼び出し側のシーケンスバグを示すため、freeティアへのフォールバックは行わない。
func NewAccountNotFoundError(accountID string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定されたアカウントが見つかりません: %s", accountID),
		Category: "auth",
		Action:   "APIキーでアカウントを再解決してください。",
	}
}

// NewDailyLimitReachedError は日次生成上限到達エラーを生成する。
func NewDailyLimitReachedError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeDailyLimitReached,
		Message:  fmt.Sprintf("本日のレポート生成上限（%d件）に達しています。", limit),
		Category: "quota",
		Action:   "日付が変わってから再度お試しいただくか、上位プランをご検討ください。",
	}
}

// NewStoreUnavailableError はストア接続エラーを生成する。
// 一時的な障害であり、呼び出し側は操作全体を再試行できる。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアに接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewFeatureNotInTierError は現在のTierで利用できない機能へのアクセスエラーを生成する。
func NewFeatureNotInTierError(feature string, tier Tier) *APIError {
	return &APIError{
		Code:     ErrCodeFeatureNotInTier,
		Message:  fmt.Sprintf("%s は現在のプラン（%s）では利用できません。", feature, tier),
		Category: "quota",
		Action:   "上位プランへのアップグレードをご検討ください。",
	}
}

// NewInvalidSourceURLError は不正な論文URLエラーを生成する。
func NewInvalidSourceURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSourceURL,
		Message:  fmt.Sprintf("論文URLが不正です: %s", reason),
		Category: "validation",
		Action:   "arXiv、bioRxiv、medRxivのURLまたはPDFの直接URLを入力してください。",
	}
}

// NewGenerationFailedError はレポート生成失敗エラーを生成する。
func NewGenerationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  fmt.Sprintf("レポートの生成に失敗しました: %s", reason),
		Category: "report",
		Action:   "しばらく待ってから再度お試しください。クォータは消費されていません。",
	}
}

// NewInvalidEmailError は不正なメールアドレスエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewAlreadyOnWaitlistError は登録済みメールアドレスエラーを生成する。
func NewAlreadyOnWaitlistError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyOnWaitlist,
		Message:  "このメールアドレスは既にウェイトリストに登録されています。",
		Category: "validation",
		Action:   "登録済みのため、追加の操作は不要です。",
	}
}
