package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateOTPCode は暗号論的乱数で6桁の数字コードを生成する。
// 先頭ゼロを保持するため、ゼロ埋めした文字列で返す。
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
