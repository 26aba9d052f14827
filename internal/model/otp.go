package model

import "time"

// OTPの用途種別。
const (
	OTPTypeEmailVerification = "email_verification"
	OTPTypePasswordReset     = "password_reset"
)

// OTP はメール検証・パスワードリセット用のワンタイムパスワードを表す。
// 同一メールアドレスに新しいOTPを発行すると、未使用の既存OTPは無効化される。
type OTP struct {
	ID        string
	Email     string
	Code      string
	Type      string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
