package middleware

import "net/http"

// contentSecurityPolicy は画像CDN（Cloudinary）とCDN配信スクリプトを
// 許可した上で、フレーム埋め込みを全面的に禁止するポリシー。
const contentSecurityPolicy = "default-src 'self'; " +
	"img-src 'self' data: https: blob:; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cloudinary.com https://cdn.jsdelivr.net https://cdn.jsdelivr.net/npm/; " +
	"style-src 'self' 'unsafe-inline' https:; " +
	"font-src 'self' data: https:; " +
	"connect-src 'self' https://api.cloudinary.com https://res.cloudinary.com wss:; " +
	"frame-src 'self' https://cloudinary.com; " +
	"frame-ancestors 'none'; " +
	"upgrade-insecure-requests;"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// ミドルウェアチェーンの最外殻に配置し、レート制限拒否（429）や404を含む
// 全てのレスポンスにヘッダーを付与する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "geolocation=(), microphone=()")
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			next.ServeHTTP(w, r)
		})
	}
}
