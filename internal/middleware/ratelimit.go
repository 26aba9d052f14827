package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/shiawase/internal/metrics"
	"github.com/hitoshi/shiawase/internal/ratelimit"
)

// RouteLimit は1ルートパターンに対する1分あたりの許容リクエスト数。
type RouteLimit struct {
	Pattern string
	Limit   int
}

// DefaultRouteLimits はルートごとのレート制限テーブルを返す。
// 乱用されやすい認証系ルートほど厳しい上限を設定する。
// 先頭から順に照合するため、より具体的なパターンを先に置く。
func DefaultRouteLimits() []RouteLimit {
	return []RouteLimit{
		{Pattern: "/api/auth/send-otp", Limit: 3},
		{Pattern: "/api/auth/verify-otp", Limit: 5},
		{Pattern: "/api/auth/login", Limit: 10},
		{Pattern: "/api/auth/register", Limit: 10},
		{Pattern: "/api/auth/logout", Limit: 50},
		{Pattern: "/api/votes", Limit: 30},
	}
}

// RateLimiterConfig はレート制限ミドルウェアの設定。
type RateLimiterConfig struct {
	Routes []RouteLimit
	Window time.Duration // 固定ウィンドウ長（通常60秒）
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Routes: DefaultRouteLimits(),
		Window: time.Minute,
	}
}

// NewRateLimitMiddleware はルート別の固定ウィンドウレート制限ミドルウェアを返す。
//
// クライアント識別はX-Forwarded-Forの先頭値 → X-Real-IP → "unknown" の順。
// プロキシヘッダーを持たないクライアントは全て"unknown"バケットを共有する。
// ストア障害時はリクエストを通す（可用性をレート制限より優先する）。
func NewRateLimitMiddleware(store ratelimit.Store, config RateLimiterConfig, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, limit, ok := matchRoute(config.Routes, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			clientID := clientIDFromRequest(r)
			key := clientID + ":" + route

			count, retryAfter, err := store.Incr(r.Context(), key, config.Window)
			if err != nil {
				slog.Warn("rate limit store unavailable, allowing request",
					slog.String("route", route),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count > limit {
				writeRateLimitResponse(w, retryAfter)
				collector.RecordRateLimitRejection(route)
				slog.Warn("rate limit exceeded",
					slog.String("client_id", clientID),
					slog.String("route", route),
					slog.Int("count", count),
					slog.Int("limit", limit),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchRoute はパスをルートテーブルに照合する。
// 完全一致またはパターン直下のサブパス（"/api/votes/xyz"）を同一ルートとして扱う。
func matchRoute(routes []RouteLimit, path string) (string, int, bool) {
	for _, rl := range routes {
		if path == rl.Pattern || strings.HasPrefix(path, rl.Pattern+"/") {
			return rl.Pattern, rl.Limit, true
		}
	}
	return "", 0, false
}

// clientIDFromRequest はレート制限のクライアント識別子を決定する。
func clientIDFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return "unknown"
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには現在のウィンドウが満了するまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]any{
		"error":      "Too many requests",
		"retryAfter": retryAfterSec,
	})
}
