// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はユーザーが入力する自由記述フィールド
// （名前・自己紹介）をサニタイズし、保存されたXSSからの保護を行う。
// bluemondayライブラリのStrictPolicyにより全てのHTMLタグを除去する。
package security

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール入力のサニタイズ機能のインターフェースを定義する。
// プロフィール更新時、保存前に使用される。
type ProfileSanitizerService interface {
	// SanitizeText は自由記述テキストから全てのHTMLタグを除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string

	// ValidateImageURL はプロフィール画像URLを検証する。
	// httpsスキームのみ許可する。空文字列は許可する（画像未設定）。
	ValidateImageURL(rawURL string) error
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// プロフィールフィールドはプレーンテキストであり、許可するタグは存在しない。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は自由記述テキストから全てのHTMLタグを除去し、前後の空白を詰める。
func (s *profileSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// ValidateImageURL はプロフィール画像URLを検証する。
func (s *profileSanitizer) ValidateImageURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid image URL: %w", err)
	}

	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("disallowed image URL scheme: %s (https only)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("empty host in image URL")
	}

	return nil
}

var _ ProfileSanitizerService = (*profileSanitizer)(nil)
