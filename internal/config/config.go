package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxSynonyms はSYNONYM_MAXの上限。キーワード照合は類義語を最大5件までしか使わない。
const MaxSynonyms = 5

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Fetch
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchMaxConcurrent int
	FetchAllowedPorts  []int

	// Schedule (cron式)
	ScrapeSchedule string
	ExpireSchedule string

	// Retention
	NewsRetentionDays int

	// Synonym (SynonymMaxは1からMaxSynonymsの範囲に収める)
	SynonymEndpoint   string
	SynonymMax        int
	SynonymTimeout    time.Duration
	SynonymRatePerSec float64
	RedisURL          string
	SynonymCacheTTL   time.Duration

	// Session
	SessionTimeout time.Duration

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string
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

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 10)
	cfg.FetchAllowedPorts = getEnvIntList("FETCH_ALLOWED_PORTS", []int{80, 443})
	cfg.ScrapeSchedule = getEnvString("SCRAPE_SCHEDULE", "0 1 * * *")
	cfg.ExpireSchedule = getEnvString("EXPIRE_SCHEDULE", "0 2 * * *")
	cfg.NewsRetentionDays = getEnvInt("NEWS_RETENTION_DAYS", 7)
	cfg.SynonymEndpoint = getEnvString("SYNONYM_ENDPOINT", "https://api.datamuse.com/words")
	cfg.SynonymMax = clampSynonymMax(getEnvInt("SYNONYM_MAX", MaxSynonyms))
	cfg.SynonymTimeout = getEnvDuration("SYNONYM_TIMEOUT", 5*time.Second)
	cfg.SynonymRatePerSec = getEnvFloat("SYNONYM_RATE_PER_SEC", 5)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.SynonymCacheTTL = getEnvDuration("SYNONYM_CACHE_TTL", 24*time.Hour)
	cfg.SessionTimeout = getEnvDuration("SESSION_TIMEOUT", 5*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
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

// getEnvIntList はカンマ区切りの整数リストを読み込む。1つでも不正な要素があれば既定値を使う。
func getEnvIntList(key string, defaultVal []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || i <= 0 || i > 65535 {
			return defaultVal
		}
		out = append(out, i)
	}
	return out
}

func clampSynonymMax(n int) int {
	if n <= 0 || n > MaxSynonyms {
		return MaxSynonyms
	}
	return n
}
