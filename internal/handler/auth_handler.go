package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/shiawase/internal/auth"
	"github.com/hitoshi/shiawase/internal/middleware"
	"github.com/hitoshi/shiawase/internal/model"
	"github.com/hitoshi/shiawase/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.RegisterResult, error)
	Login(ctx context.Context, email, password, userAgent, ipAddress string) (*auth.Credentials, error)
	Logout(ctx context.Context, sessionID string) error
	SendOTP(ctx context.Context, email, otpType string) error
	VerifyOTP(ctx context.Context, email, code, otpType, userAgent, ipAddress string) (*auth.VerifyOTPResult, error)
	GoogleSignIn(ctx context.Context, idToken, userAgent, ipAddress string) (*auth.Credentials, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, input auth.UpdateProfileInput) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface

	authCookie    session.CookieProfile
	sessionCookie session.CookieProfile
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookies session.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:       service,
		authCookie:    session.AuthTokenProfile(cookies),
		sessionCookie: session.SessionIDProfile(cookies),
	}
}

// setAuthCookies はアクセストークンとセッションIDの両Cookieを設定する。
// ログイン成功ごとに必ず2つ揃えて発行する。
func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, token, sessionID string) {
	h.authCookie.Set(w, token)
	h.sessionCookie.Set(w, sessionID)
}

// clearAuthCookies は両Cookieを無効化する。
func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	h.authCookie.Clear(w)
	h.sessionCookie.Clear(w)
}

// Register は新規ユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Phone:    body.Phone,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":              true,
		"message":              "Registration successful. Please verify your email.",
		"token":                result.PendingToken,
		"requiresVerification": true,
	})
}

// Login はメールアドレスとパスワードによるログインを処理する。
// 成功時はauth_tokenとsession_idの両Cookieを設定する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	creds, err := h.service.Login(r.Context(), body.Email, body.Password, r.UserAgent(), requestIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	h.setAuthCookies(w, creds.Token, creds.SessionID)

	respondJSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(creds.User),
		"token": creds.Token,
	})
}

// Logout はセッションを破棄し、両Cookieを無効化する。
// セッション削除に失敗してもCookieは必ずクリアし、200を返す。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.SessionIDCookie); err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to delete session on logout", slog.String("error", logoutErr.Error()))
		}
	}

	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SendOTP はワンタイムパスワードの発行とメール送信を処理する。
// POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Type  string `json:"type"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Type == "" {
		body.Type = model.OTPTypeEmailVerification
	}

	if err := h.service.SendOTP(r.Context(), body.Email, body.Type); err != nil {
		writeAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "OTP sent successfully",
		"expiresIn": 600,
	})
}

// VerifyOTP はワンタイムパスワードの検証を処理する。
// メール検証成功時は両Cookieを設定し、アクセストークンを返す。
// パスワードリセット検証成功時はリセットトークンのみを返す。
// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
		Type  string `json:"type"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Type == "" {
		body.Type = model.OTPTypeEmailVerification
	}

	result, err := h.service.VerifyOTP(r.Context(), body.Email, body.OTP, body.Type, r.UserAgent(), requestIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if body.Type == model.OTPTypePasswordReset {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "OTP verified successfully",
			"resetToken": result.ResetToken,
		})
		return
	}

	h.setAuthCookies(w, result.Token, result.SessionID)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully",
		"user":    toUserResponse(result.User),
		"token":   result.Token,
	})
}

// GoogleSignIn はGoogleのIDトークンによるサインインを処理する。
// POST /api/auth/google
func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"idToken"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.IDToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing idToken")
		return
	}

	creds, err := h.service.GoogleSignIn(r.Context(), body.IDToken, r.UserAgent(), requestIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	h.setAuthCookies(w, creds.Token, creds.SessionID)

	respondJSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(creds.User),
		"token": creds.Token,
	})
}

// Me は現在のユーザーを返す。
// GET /api/auth/me （ベアラートークン必須）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateMe は現在のユーザーのプロフィールを更新する。
// PUT /api/auth/me （ベアラートークン必須）
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, auth.UpdateProfileInput{
		Name:         body.Name,
		Phone:        body.Phone,
		Bio:          body.Bio,
		ProfileImage: body.ProfileImage,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// writeAuthError は認証サービスのエラーをHTTPステータスに対応付ける。
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrOTPInvalid):
		middleware.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, auth.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrUserNotFound):
		middleware.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrEmailTaken):
		middleware.WriteError(w, http.StatusConflict, "User with this email already exists")
	default:
		slog.Error("auth handler error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}
