// Package auth はリクエストの認証解決と認証フロー（登録・ログイン・OTP・
// Googleサインイン）のビジネスロジックを提供する。
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/shiawase/internal/metrics"
	"github.com/hitoshi/shiawase/internal/repository"
	"github.com/hitoshi/shiawase/internal/session"
	"github.com/hitoshi/shiawase/internal/token"
)

// Identityの解決元。
const (
	SourceBearer     = "bearer"
	SourceAuthCookie = "auth_cookie"
	SourceSession    = "session"
)

// Identity は認証済みリクエストの送信者を表す。
// Sourceがsessionの場合、EmailとRolesは設定されない
// （必要なハンドラーはUserIDでユーザーを引き直す）。
type Identity struct {
	UserID string
	Email  string
	Roles  []string
	Source string
}

// credentialSource は1つの資格情報の取り出しと検証を表す。
// Resolverは登録順に試行し、最初に成功したものを採用する。
type credentialSource struct {
	name    string
	resolve func(ctx context.Context, r *http.Request) *Identity
}

// Resolver はリクエストから送信者のアイデンティティを解決する。
//
// 解決順序: Authorizationヘッダーのベアラートークン → auth_token Cookie →
// session_id Cookieによる永続セッション参照。署名シークレットが未設定の
// 場合は資格情報の有無にかかわらず未認証を返す（フェイルクローズド）。
type Resolver struct {
	tokens    *token.Service
	sessions  repository.SessionRepository
	lifecycle *session.Manager
	collector metrics.MetricsCollector

	sources []credentialSource
}

// NewResolver はResolverを生成する。
func NewResolver(
	tokens *token.Service,
	sessions repository.SessionRepository,
	lifecycle *session.Manager,
	collector metrics.MetricsCollector,
) *Resolver {
	r := &Resolver{
		tokens:    tokens,
		sessions:  sessions,
		lifecycle: lifecycle,
		collector: collector,
	}
	r.sources = []credentialSource{
		{name: SourceBearer, resolve: r.fromBearer},
		{name: SourceAuthCookie, resolve: r.fromAuthCookie},
		{name: SourceSession, resolve: r.fromSession},
	}
	return r
}

// Resolve はフォールバックチェーン全体でアイデンティティを解決する。
// 未認証の場合はnilを返す。資格情報を一切持たないリクエストは
// セッションストアに触れずに未認証となる。
func (rv *Resolver) Resolve(r *http.Request) *Identity {
	if !rv.tokens.Configured() {
		return nil
	}

	for _, src := range rv.sources {
		if id := src.resolve(r.Context(), r); id != nil {
			return id
		}
	}
	return nil
}

// ResolveStrict はベアラートークンのみでアイデンティティを解決する。
// Cookieへのフォールバックは行わない。
func (rv *Resolver) ResolveStrict(r *http.Request) *Identity {
	if !rv.tokens.Configured() {
		return nil
	}
	return rv.fromBearer(r.Context(), r)
}

// fromBearer はAuthorizationヘッダーのベアラートークンを検証する。
func (rv *Resolver) fromBearer(_ context.Context, r *http.Request) *Identity {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}

	return rv.verifyAccessToken(raw, SourceBearer)
}

// fromAuthCookie はauth_token Cookieのトークンを検証する。
func (rv *Resolver) fromAuthCookie(_ context.Context, r *http.Request) *Identity {
	c, err := r.Cookie(session.AuthTokenCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	return rv.verifyAccessToken(c.Value, SourceAuthCookie)
}

// fromSession はsession_id Cookieで永続セッションを参照する。
// ヒットした場合、lastSeenの更新をリクエスト処理とは独立に行う。
func (rv *Resolver) fromSession(ctx context.Context, r *http.Request) *Identity {
	c, err := r.Cookie(session.SessionIDCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	s, err := rv.sessions.FindActiveByID(ctx, c.Value)
	if err != nil {
		slog.Warn("session lookup failed", slog.String("error", err.Error()))
		return nil
	}
	if s == nil {
		return nil
	}

	rv.lifecycle.TouchAsync(s.ID)
	rv.collector.RecordSessionFallback()

	return &Identity{
		UserID: s.UserID,
		Source: SourceSession,
	}
}

// verifyAccessToken はアクセストークンを検証しIdentityに変換する。
func (rv *Resolver) verifyAccessToken(raw, source string) *Identity {
	claims, err := rv.tokens.Verify(raw, token.PurposeAccess)
	if err != nil {
		rv.collector.RecordTokenVerification(metrics.ResultFailure)
		return nil
	}

	rv.collector.RecordTokenVerification(metrics.ResultSuccess)

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
		Source: source,
	}
}
