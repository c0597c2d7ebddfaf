// Package config はアプリケーション設定の読み込みと検証を提供する。
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// SessionStoreKind はセッションストアのバックエンド種別。
type SessionStoreKind string

const (
	// SessionStorePostgres はPostgreSQLバックエンドを示す。デフォルト。
	SessionStorePostgres SessionStoreKind = "postgres"
	// SessionStoreMemory はプロセスメモリバックエンドを示す。
	// 再起動で消える。複数インスタンス構成では使用しないこと。
	SessionStoreMemory SessionStoreKind = "memory"
	// SessionStoreRedis はRedisバックエンドを示す。
	SessionStoreRedis SessionStoreKind = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleAuthURL      string // 空の場合はプロバイダーのデフォルト
	GoogleTokenURL     string
	GoogleUserInfoURL  string
	OAuthTimeout       time.Duration

	// Session
	SessionSecret string
	SessionMaxAge int
	SessionStore  SessionStoreKind

	// Redis（SessionStore=redisの場合のみ使用）
	RedisAddr     string
	RedisPassword string

	// Invite
	InviteRequired bool

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、またはURL系の値が不正な場合はエラーを返す。
// 設定エラーは起動時に致命的として扱い、サーバーは起動しない。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GoogleAuthURL = os.Getenv("GOOGLE_AUTH_URL")
	cfg.GoogleTokenURL = os.Getenv("GOOGLE_TOKEN_URL")
	cfg.GoogleUserInfoURL = os.Getenv("GOOGLE_USERINFO_URL")
	cfg.OAuthTimeout = getEnvDuration("OAUTH_TIMEOUT", 10*time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.InviteRequired = getEnvBool("INVITE_REQUIRED", false)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	store := getEnvString("SESSION_STORE", string(SessionStorePostgres))
	switch SessionStoreKind(store) {
	case SessionStorePostgres, SessionStoreMemory, SessionStoreRedis:
		cfg.SessionStore = SessionStoreKind(store)
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q (must be postgres, memory or redis)", store)
	}

	// URL系の値の検証。不正な値で起動してしまうとOAuthフローが
	// 実行時に壊れるため、起動時に弾く。
	urlFields := map[string]string{
		"BASE_URL":            cfg.BaseURL,
		"GOOGLE_REDIRECT_URL": cfg.GoogleRedirectURL,
		"GOOGLE_AUTH_URL":     cfg.GoogleAuthURL,
		"GOOGLE_TOKEN_URL":    cfg.GoogleTokenURL,
		"GOOGLE_USERINFO_URL": cfg.GoogleUserInfoURL,
	}
	for name, value := range urlFields {
		if value == "" {
			continue
		}
		if err := validateHTTPURL(value); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return cfg, nil
}

// validateHTTPURL は値が絶対http/https URLであることを検証する。
func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https scheme", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
