package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// LLM（外部レポート生成サービス）
	LLMAPIURL  string
	LLMAPIKey  string
	LLMTimeout time.Duration

	// Quota
	// QuotaTimezoneは日次クォータの「1日」を区切るIANAタイムゾーン名。
	// 元実装はサーバーローカル日付に依存していたため、明示的な設定に置き換えた。
	QuotaTimezone string
	QuotaLocation *time.Location

	// Rate Limit（req/min単位）
	RateLimitGeneral   int
	RateLimitReportGen int

	// Usage pattern
	PatternLookback int

	// Worker
	StatsRefreshInterval time.Duration

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.LLMAPIURL = os.Getenv("LLM_API_URL")
	if cfg.LLMAPIURL == "" {
		missing = append(missing, "LLM_API_URL")
	}

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.LLMTimeout = getEnvDuration("LLM_TIMEOUT", 30*time.Second)
	cfg.QuotaTimezone = getEnvString("QUOTA_TIMEZONE", "UTC")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitReportGen = getEnvInt("RATE_LIMIT_REPORT_GEN", 10)
	cfg.PatternLookback = getEnvInt("PATTERN_LOOKBACK", 50)
	cfg.StatsRefreshInterval = getEnvDuration("STATS_REFRESH_INTERVAL", 5*time.Minute)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// タイムゾーンは起動時に1回だけ解決する。不正な名前は設定エラーとして弾く。
	loc, err := time.LoadLocation(cfg.QuotaTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", cfg.QuotaTimezone, err)
	}
	cfg.QuotaLocation = loc

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
