// Package token は署名付きトークン（JWT）の発行と検証を提供する。
//
// トークンはHMAC-SHA256で署名され、サーバーサイドには一切保存しない
// （ステートレス）。署名シークレットが未設定の場合、発行・検証ともに
// ErrSecretNotConfiguredを返しフェイルクローズドに倒す。シークレット
// 未設定を「全員有効」として扱ってはならない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークンの用途。用途の異なるトークンは相互に受理されない。
const (
	PurposeAccess            = "access"
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

var (
	// ErrSecretNotConfigured は署名シークレットが未設定であることを示す。
	// 呼び出し側はこのエラーを「未認証」に変換する（リクエスト処理を落とさない）。
	ErrSecretNotConfigured = errors.New("auth secret is not configured")

	// ErrTokenInvalid は署名不正・期限切れ・形式不正のトークンを示す。
	ErrTokenInvalid = errors.New("token is invalid or expired")
)

// Claims は署名付きトークンに埋め込むアイデンティティクレーム。
type Claims struct {
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	Purpose string   `json:"purpose"`
	jwt.RegisteredClaims
}

// Service は署名付きトークンの発行・検証を行う。
type Service struct {
	secret []byte
}

// NewService はServiceを生成する。
// secretが空の場合でも生成は成功するが、全操作がErrSecretNotConfiguredを返す。
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Configured は署名シークレットが設定されているかどうかを返す。
func (s *Service) Configured() bool {
	return len(s.secret) > 0
}

// Sign は指定ユーザーのクレームを含む署名付きトークンを発行する。
func (s *Service) Sign(userID, email string, roles []string, purpose string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSecretNotConfigured
	}

	now := time.Now()
	claims := &Claims{
		Email:   email,
		Roles:   roles,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 署名不正・期限切れ・アルゴリズム不一致・用途不一致はすべてErrTokenInvalid。
func (s *Service) Verify(raw string, purpose string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretNotConfigured
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// HS256以外の署名アルゴリズムは受理しない
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: purpose mismatch", ErrTokenInvalid)
	}

	return claims, nil
}
