// Package model はドメインモデルを定義する。
package model

import "time"

// Report は生成済みの分析レポートを表す。
// Insightsは外部LLMサービスが生成したMarkdownをサニタイズしたもの。
type Report struct {
	ID          string
	AccountID   string
	SourceURL   string
	SourceType  string
	Role        string
	Industry    string
	ContentHash string
	Insights    string
	TimingScore int
	Keywords    []string
	CreatedAt   time.Time
}

// DealFlowSummary はアカウントのレポート履歴から抽出した投資傾向の集計結果。
// Enterprise限定機能。レポートが3件未満の場合はStatusがinsufficient_dataになる。
type DealFlowSummary struct {
	Status             string
	TrendingKeywords   []KeywordCount
	IndustryFocus      []KeywordCount
	AverageTimingScore float64
	ReportsAnalyzed    int
	Recommendation     string
}

// KeywordCount はキーワードまたは業界名と出現回数の組。
type KeywordCount struct {
	Name  string
	Count int
}

// PlatformStats はプラットフォーム全体の統計値を表す。
type PlatformStats struct {
	TotalReports  int
	ActiveUsers   int
	ReportsToday  int
	TopIndustries []string
}

// WaitlistEntry は上位プランへの関心を登録したリードを表す。
type WaitlistEntry struct {
	Email        string
	Source       string
	TierInterest string
	CreatedAt    time.Time
}
