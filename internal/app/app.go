// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/shiawase/internal/auth"
	"github.com/hitoshi/shiawase/internal/config"
	"github.com/hitoshi/shiawase/internal/database"
	"github.com/hitoshi/shiawase/internal/handler"
	"github.com/hitoshi/shiawase/internal/logger"
	"github.com/hitoshi/shiawase/internal/mailer"
	"github.com/hitoshi/shiawase/internal/metrics"
	"github.com/hitoshi/shiawase/internal/middleware"
	"github.com/hitoshi/shiawase/internal/ratelimit"
	"github.com/hitoshi/shiawase/internal/repository"
	"github.com/hitoshi/shiawase/internal/security"
	"github.com/hitoshi/shiawase/internal/session"
	"github.com/hitoshi/shiawase/internal/token"
	"github.com/hitoshi/shiawase/internal/vote"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	if cfg.AuthSecret == "" {
		slog.Warn("AUTH_SECRET is not set; all token operations will fail closed and every request is treated as unauthenticated")
	}

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	otpRepo := repository.NewPostgresOTPRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	voteRepo := repository.NewPostgresVoteRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. トークン・セッション基盤の初期化
	tokenService := token.NewService(cfg.AuthSecret)
	sessionManager := session.NewManager(sessionRepo, cfg.SessionTTL)
	resolver := auth.NewResolver(tokenService, sessionRepo, sessionManager, collector)

	// 5. 外部連携の初期化
	googleVerifier := auth.NewGoogleVerifier(
		auth.GoogleVerifierConfig{ClientID: cfg.GoogleClientID},
		security.NewOutboundClient(10*time.Second),
	)
	mail := newMailer(cfg)
	sanitizer := security.NewProfileSanitizer()

	// 6. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, otpRepo, tokenService, sessionManager,
		mail, googleVerifier, sanitizer, collector,
		auth.ServiceConfig{
			AccessTokenTTL: cfg.AccessTokenTTL,
			PendingTTL:     cfg.PendingTTL,
			ResetTokenTTL:  cfg.ResetTokenTTL,
		},
	)
	voteService := vote.NewService(voteRepo)

	// 7. レート制限ストアの初期化
	rateLimitStore, stopStore, err := newRateLimitStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limit store: %w", err)
	}
	defer stopStore()

	rateLimitConfig := middleware.DefaultRateLimiterConfig()
	rateLimitConfig.Window = cfg.RateLimitWindow

	// 8. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Resolver:          resolver,
		RateLimitStore:    rateLimitStore,
		RateLimitConfig:   rateLimitConfig,
		Collector:         collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		AuthService:       authService,
		VoteService:       voteService,
		Cookies: session.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},
		Gatherer: registry,
	})

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newMailer はSMTP設定の有無に応じてメーラーを選択する。
// SMTP_ADDRが未設定の開発環境ではログ出力のみのメーラーを使用する。
func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SMTPAddr == "" {
		slog.Warn("SMTP_ADDR is not set; outgoing mail will only be logged")
		return mailer.NewLogMailer()
	}
	return mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.MailPerMinute)
}

// newRateLimitStore はREDIS_URLの有無に応じてレート制限ストアを選択する。
// Redisが設定されていればカウンタを複数インスタンスで共有し、
// 未設定であればプロセスローカルのカウンタを使用する。
func newRateLimitStore(cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RedisURL == "" {
		store := ratelimit.NewMemoryStore(time.Minute)
		return store, store.Stop, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	slog.Info("rate limit counters backed by redis", slog.String("addr", opts.Addr))
	return ratelimit.NewRedisStore(client), func() { client.Close() }, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
