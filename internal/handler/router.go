package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/shiawase/internal/metrics"
	"github.com/hitoshi/shiawase/internal/middleware"
	"github.com/hitoshi/shiawase/internal/ratelimit"
	"github.com/hitoshi/shiawase/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	Resolver          middleware.IdentityResolver
	RateLimitStore    ratelimit.Store
	RateLimitConfig   middleware.RateLimiterConfig
	Collector         metrics.MetricsCollector
	CORSAllowedOrigin string

	// サービス
	AuthService AuthServiceInterface
	VoteService VoteServiceInterface

	// Cookie
	Cookies session.CookieConfig

	// Prometheusスクレイプ用
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → Logging → Recovery → CORS → RateLimit
//
// セキュリティヘッダーは最外殻に置き、レート制限拒否（429）や404を含む
// 全レスポンスに付与する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRateLimitMiddleware(deps.RateLimitStore, deps.RateLimitConfig, deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.Cookies)
	voteHandler := NewVoteHandler(deps.VoteService, deps.Resolver)

	// 稼働確認
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	r.Route("/api/auth", func(r chi.Router) {
		// 認証不要のルート
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/google", authHandler.GoogleSignIn)

		// ベアラートークン必須（Cookieフォールバックなし）
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Resolver, true))
			r.Get("/me", authHandler.Me)
			r.Put("/me", authHandler.UpdateMe)
		})
	})

	r.Route("/api/votes", func(r chi.Router) {
		// 閲覧は未認証でも可能
		r.Get("/", voteHandler.GetStatus)

		// 投票操作はフォールバックチェーン全体で認証
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Resolver, false))
			r.Post("/", voteHandler.Toggle)
			r.Delete("/", voteHandler.Remove)
		})
	})

	return r
}
