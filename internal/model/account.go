// Package model はドメインモデルを定義する。
package model

import "time"

// Account はAPIキーから解決されるサービス利用アカウントを表す。
// 生のAPIキーは保存せず、一方向ハッシュのフィンガープリントのみを保持する。
type Account struct {
	ID                    string
	CredentialFingerprint string
	Tier                  Tier
	CreatedAt             time.Time
	LastActiveAt          time.Time
}

// Tier はサブスクリプション階層を表す。
type Tier string

const (
	// TierFree は無料プラン。
	TierFree Tier = "free"
	// TierPro は有料プラン。
	TierPro Tier = "pro"
	// TierEnterprise はエンタープライズプラン。
	TierEnterprise Tier = "enterprise"
)

// Valid はTierが定義済みの値かどうかを返す。
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}

// TierLimits はTierごとの機能制限を表す。
type TierLimits struct {
	ReportsPerDay     int
	MaxPages          int
	ExportEnabled     bool
	BattlecardEnabled bool
	DealRadarEnabled  bool
	TeamCollab        bool
}

// Limits はTierに対応する機能制限を返す。
// 全Tierを網羅したswitchで定義する。未知の値には最も厳しいTierFreeの制限を適用する。
func (t Tier) Limits() TierLimits {
	switch t {
	case TierPro:
		return TierLimits{ReportsPerDay: 25, MaxPages: 100, ExportEnabled: true, BattlecardEnabled: true}
	case TierEnterprise:
		return TierLimits{ReportsPerDay: 999, MaxPages: 500, ExportEnabled: true, BattlecardEnabled: true, DealRadarEnabled: true, TeamCollab: true}
	default: // TierFree と未知の値
		return TierLimits{ReportsPerDay: 1, MaxPages: 30}
	}
}

// MonthlyPriceUSD はTierの月額料金（米ドル）を返す。
func (t Tier) MonthlyPriceUSD() int {
	switch t {
	case TierPro:
		return 49
	case TierEnterprise:
		return 499
	default:
		return 0
	}
}
