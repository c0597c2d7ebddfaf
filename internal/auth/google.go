package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleConfig はGoogle OAuthプロバイダーの設定。
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// Timeout はトークン交換とユーザー情報取得の上限時間。
	// タイムアウトしたログイン試行は失敗として扱われ、
	// セッションが部分的に作られることはない。
	Timeout time.Duration
}

// GoogleProvider はGoogle OAuth 2.0による認証を提供する。
type GoogleProvider struct {
	config GoogleConfig
	client *http.Client
}

// NewGoogleProvider はGoogleProviderを生成する。
func NewGoogleProvider(config GoogleConfig) *GoogleProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &GoogleProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Name はプロバイダー名を返す。
func (p *GoogleProvider) Name() string {
	return "google"
}

// AuthCodeURL はGoogle OAuthの認可URLを生成する。
// スコープにはopenid, email, profileを含む。
func (p *GoogleProvider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"access_type":   {"offline"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// googleTokenResponse はGoogleのトークンエンドポイントのレスポンス。
type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// googleUserInfo はGoogleのユーザー情報エンドポイントのレスポンス。
type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange は認可コードをアクセストークンに交換する。
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("token request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("token exchange failed with status %d", resp.StatusCode)}
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("failed to parse token response: %w", err)}
	}

	if tokenResp.AccessToken == "" {
		return "", &UpstreamError{Op: "exchange", Err: fmt.Errorf("empty access token in response")}
	}

	return tokenResp.AccessToken, nil
}

// FetchProfile はアクセストークンでGoogleのユーザー情報を取得する。
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("failed to create user info request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("user info request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("failed to read user info response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("user info fetch failed with status %d", resp.StatusCode)}
	}

	var userInfo googleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("failed to parse user info response: %w", err)}
	}

	if userInfo.Sub == "" {
		return nil, &UpstreamError{Op: "profile", Err: fmt.Errorf("empty sub in user info response")}
	}

	return &Profile{
		Subject: userInfo.Sub,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}, nil
}

// compile-time interface check
var _ Provider = (*GoogleProvider)(nil)
