package middleware

import (
	"net/http"

	"github.com/hitoshi/shiawase/internal/auth"
)

// IdentityResolver はリクエストからアイデンティティを解決するインターフェース。
// auth.Resolverの部分集合として定義する。
type IdentityResolver interface {
	// Resolve はベアラートークン → auth_token Cookie → 永続セッションの
	// フォールバックチェーンで解決する。未認証の場合はnil。
	Resolve(r *http.Request) *auth.Identity

	// ResolveStrict はベアラートークンのみで解決する。未認証の場合はnil。
	ResolveStrict(r *http.Request) *auth.Identity
}

// NewAuthMiddleware は認証必須ルートのミドルウェアを返す。
// strictがtrueの場合はベアラートークンのみを受理し、Cookieへフォールバックしない。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(resolver IdentityResolver, strict bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id *auth.Identity
			if strict {
				id = resolver.ResolveStrict(r)
			} else {
				id = resolver.Resolve(r)
			}

			if id == nil {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), id.UserID)))
		})
	}
}
