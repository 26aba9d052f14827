package session

import "net/http"

// Cookie名。auth_tokenは短命の署名付きトークン、session_idは永続セッションID。
const (
	AuthTokenCookie = "auth_token"
	SessionIDCookie = "session_id"
)

// Cookieの有効期間（秒）。
// 短命トークン（7日）が高速検証を担い、長命セッション（30日）が
// トークン失効後のサイレント再認証を担う。
const (
	AuthTokenMaxAge = 7 * 24 * 60 * 60  // 604800
	SessionIDMaxAge = 30 * 24 * 60 * 60 // 2592000
)

// CookieProfile は1つのCookieの属性セットを表す。
// 2つのCookieプロファイル（短命トークン・長命セッション）を
// アドホックなリテラルではなく明示的な設定として保持する。
type CookieProfile struct {
	Name     string
	MaxAge   int
	Path     string
	Domain   string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieConfig は環境依存のCookie属性。
type CookieConfig struct {
	Secure bool
	Domain string
}

// AuthTokenProfile は短命トークンCookieのプロファイルを返す。
func AuthTokenProfile(cfg CookieConfig) CookieProfile {
	return CookieProfile{
		Name:     AuthTokenCookie,
		MaxAge:   AuthTokenMaxAge,
		Path:     "/",
		Domain:   cfg.Domain,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionIDProfile は永続セッションCookieのプロファイルを返す。
func SessionIDProfile(cfg CookieConfig) CookieProfile {
	return CookieProfile{
		Name:     SessionIDCookie,
		MaxAge:   SessionIDMaxAge,
		Path:     "/",
		Domain:   cfg.Domain,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Set はプロファイルに従ってCookieをレスポンスに設定する。
func (p CookieProfile) Set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Path:     p.Path,
		Domain:   p.Domain,
		MaxAge:   p.MaxAge,
		HttpOnly: p.HTTPOnly,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// Clear は同一属性のままMax-Age=0でCookieを無効化する。
// GoのMaxAge: -1 は "Max-Age=0" として送出される。
func (p CookieProfile) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     p.Path,
		Domain:   p.Domain,
		MaxAge:   -1,
		HttpOnly: p.HTTPOnly,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}
