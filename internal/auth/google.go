package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUserInfo はGoogleのIDトークンから取得したユーザー情報を表す。
type GoogleUserInfo struct {
	Sub           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// GoogleTokenVerifier はGoogleサインインのIDトークン検証インターフェース。
type GoogleTokenVerifier interface {
	// VerifyIDToken はIDトークンを検証し、ユーザー情報を返す。
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error)
}

// GoogleVerifierConfig はGoogleVerifierの設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogleのtokeninfoエンドポイントでIDトークンを検証する。
// 外部への到達にはSSRF防止機能付きのHTTPクライアントを使用する。
type GoogleVerifier struct {
	config GoogleVerifierConfig
	client *http.Client
}

// NewGoogleVerifier はGoogleVerifierを生成する。
func NewGoogleVerifier(config GoogleVerifierConfig, client *http.Client) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultTokenInfoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleVerifier{config: config, client: client}
}

// tokenInfoResponse はtokeninfoエンドポイントのレスポンス。
// 数値・真偽値もすべて文字列で返る。
type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken はIDトークンをtokeninfoエンドポイントで検証する。
// audクレームがこのアプリケーションのクライアントIDと一致しない
// トークンは拒否する。
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}
	if v.config.ClientID == "" {
		return nil, fmt.Errorf("google client ID is not configured")
	}

	endpoint := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("id token rejected with status %d: %s", resp.StatusCode, string(body))
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}

	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("id token audience mismatch")
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("incomplete tokeninfo response")
	}

	return &GoogleUserInfo{
		Sub:           info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		Picture:       info.Picture,
		EmailVerified: info.EmailVerified == "true",
	}, nil
}

// compile-time interface check
var _ GoogleTokenVerifier = (*GoogleVerifier)(nil)
