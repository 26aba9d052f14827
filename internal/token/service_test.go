package token

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func TestSignAndVerify_RoundTrip(t *testing.T) {
	svc := NewService(testSecret)

	raw, err := svc.Sign("user-123", "taro@example.com", []string{"participant"}, PurposeAccess, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := svc.Verify(raw, PurposeAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "taro@example.com")
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "participant" {
		t.Errorf("Roles = %v, want [participant]", claims.Roles)
	}
}

// シークレット未設定の場合、発行も検証もフェイルクローズドで失敗すること
func TestEmptySecret_FailsClosed(t *testing.T) {
	svc := NewService("")

	if _, err := svc.Sign("user-123", "", nil, PurposeAccess, time.Hour); !errors.Is(err, ErrSecretNotConfigured) {
		t.Errorf("Sign error = %v, want ErrSecretNotConfigured", err)
	}

	if _, err := svc.Verify("whatever", PurposeAccess); !errors.Is(err, ErrSecretNotConfigured) {
		t.Errorf("Verify error = %v, want ErrSecretNotConfigured", err)
	}
}

func TestVerify_ExpiredToken_ReturnsInvalid(t *testing.T) {
	svc := NewService(testSecret)

	raw, err := svc.Sign("user-123", "", nil, PurposeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := svc.Verify(raw, PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_WrongSecret_ReturnsInvalid(t *testing.T) {
	raw, err := NewService(testSecret).Sign("user-123", "", nil, PurposeAccess, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := NewService("another-secret-that-does-not-match!!")
	if _, err := other.Verify(raw, PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_MalformedToken_ReturnsInvalid(t *testing.T) {
	svc := NewService(testSecret)

	if _, err := svc.Verify("not.a.jwt", PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify error = %v, want ErrTokenInvalid", err)
	}
}

// 用途の異なるトークンは受理されないこと
// （メール検証用の1時間トークンをアクセストークンとして使えない）
func TestVerify_PurposeMismatch_ReturnsInvalid(t *testing.T) {
	svc := NewService(testSecret)

	raw, err := svc.Sign("user-123", "taro@example.com", nil, PurposeEmailVerification, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := svc.Verify(raw, PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify error = %v, want ErrTokenInvalid", err)
	}

	if _, err := svc.Verify(raw, PurposeEmailVerification); err != nil {
		t.Errorf("Verify with matching purpose: %v", err)
	}
}
