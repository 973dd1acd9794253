// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// UpsertByFingerprint はフィンガープリントでアカウントを解決する。
	// 未登録の場合は渡されたアカウントをそのまま作成し、登録済みの場合は
	// last_active_atのみを更新して既存の行を返す。
	// credential_fingerprintのUNIQUE制約により、並行した初回解決でも
	// 同一フィンガープリントに対して必ず1行だけが作成される。
	UpsertByFingerprint(ctx context.Context, account *model.Account) (*model.Account, error)

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// UsageEventRepository は利用イベントの永続化インターフェース。
// イベント列は追記専用であり、削除・更新のメソッドは存在しない。
type UsageEventRepository interface {
	// CountByAccountInRange は指定アカウント・アクションのイベント数を
	// [from, to) の半開区間で数える。
	CountByAccountInRange(ctx context.Context, accountID, action string, from, to time.Time) (int, error)

	// AppendWithinLimit は [from, to) 内の同一アクションのイベント数が
	// limit未満の場合に限り、eventを1件追記する。
	// アカウント行をFOR UPDATEでロックしてからカウントと追記を同一トランザクションで
	// 実行するため、同一アカウントの並行呼び出しは直列化され、
	// 残り1枠に対する二重追記は起こらない。
	// 追記できた場合はtrueを、上限到達により追記しなかった場合はfalseを返す。
	AppendWithinLimit(ctx context.Context, event *model.UsageEvent, limit int, from, to time.Time) (bool, error)

	// ListRecentByAccount は指定アカウントの直近のイベントを新しい順に最大limit件返す。
	ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]*model.UsageEvent, error)
}

// ReportRepository はレポートデータの永続化インターフェース。
type ReportRepository interface {
	// Create はレポートを作成する。
	Create(ctx context.Context, report *model.Report) error

	// ListRecentByAccount は指定アカウントのレポートを新しい順に最大limit件返す。
	ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]*model.Report, error)
}

// WaitlistRepository はウェイトリストの永続化インターフェース。
type WaitlistRepository interface {
	// Add はエントリを登録する。メールアドレスが登録済みの場合は
	// 何もせずfalseを返す（UNIQUE制約 + ON CONFLICT DO NOTHING）。
	Add(ctx context.Context, entry *model.WaitlistEntry) (bool, error)
}

// StatsRepository はプラットフォーム統計の読み取りインターフェース。
type StatsRepository interface {
	// PlatformStats はレポート総数、直近7日間のアクティブアカウント数、
	// 本日のレポート数、上位業界を集計して返す。
	PlatformStats(ctx context.Context, now time.Time) (*model.PlatformStats, error)
}
