// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	// AuthSecretは必須にしない。未設定の場合、トークン署名・検証は
	// フェイルクローズドで全て失敗する（全リクエストが未認証扱いになる）。
	AuthSecret     string
	AccessTokenTTL time.Duration
	PendingTTL     time.Duration
	ResetTokenTTL  time.Duration
	SessionTTL     time.Duration

	// Google Sign-In
	GoogleClientID string

	// Rate Limit
	// RedisURLが設定されている場合、レート制限カウンタをRedisで共有する。
	// 未設定の場合はプロセスローカルのカウンタを使用する（単一インスタンス限定）。
	RedisURL        string
	RateLimitWindow time.Duration

	// Mail
	SMTPAddr       string
	SMTPFrom       string
	MailPerMinute  int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

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

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour)
	cfg.PendingTTL = getEnvDuration("PENDING_TOKEN_TTL", 1*time.Hour)
	cfg.ResetTokenTTL = getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 30*24*time.Hour)
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second)
	cfg.SMTPAddr = os.Getenv("SMTP_ADDR")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", "no-reply@shiawase.example")
	cfg.MailPerMinute = getEnvInt("MAIL_PER_MINUTE", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

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
