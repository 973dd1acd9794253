// Package model はドメインモデルを定義する。
package model

import "time"

// ActionReportGenerated はレポート生成完了を表すアクションタグ。
// 日次クォータを消費する唯一のアクション種別。
const ActionReportGenerated = "report"

// UsageEvent はクォータを消費するアクションが1回完了したことを表す。
// 追記専用かつ不変であり、削除・更新は行われない。
// 日次カウントは常にこのイベント列への日付範囲クエリで再構成される。
type UsageEvent struct {
	ID         string
	AccountID  string
	Action     string
	OccurredAt time.Time
}

// AdmissionResult は「今すぐもう1件レポートを生成してよいか」の判定結果を表す。
type AdmissionResult struct {
	Allowed   bool
	Remaining int
	Limit     int
	UsedToday int
}

// UsagePatternSummary は直近の利用イベントの集計結果を表す。
// イベント数が閾値未満の場合はStatusがStatusInsufficientDataになり、
// 集計フィールドはゼロ値のまま返される。
type UsagePatternSummary struct {
	Status         string
	EventsAnalyzed int
	ActionCounts   map[string]int
	FirstEventAt   time.Time
	LastEventAt    time.Time
	EventsPerDay   float64
}

const (
	// SummaryStatusOK は集計が成立したことを示す。
	SummaryStatusOK = "success"
	// SummaryStatusInsufficientData はイベント数が閾値未満であることを示す。
	SummaryStatusInsufficientData = "insufficient_data"
)

// MinEventsForPattern はパターン分析に必要な最小イベント数。
const MinEventsForPattern = 3
