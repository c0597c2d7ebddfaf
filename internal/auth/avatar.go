package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/routinely/internal/security"
)

// maxAvatarSize はアバター画像の最大サイズ（バイト）。
const maxAvatarSize = 1 << 20 // 1MiB

// AvatarFetcher はOAuthプロファイルのアバター画像を取得する。
// 画像URLは外部プロバイダーのレスポンスに由来するため、
// SSRF防止付きHTTPクライアント経由でのみ取得する。
type AvatarFetcher struct {
	guard  security.SSRFGuardService
	client *http.Client
}

// NewAvatarFetcher はAvatarFetcherを生成する。
func NewAvatarFetcher(guard security.SSRFGuardService, timeout time.Duration) *AvatarFetcher {
	return &AvatarFetcher{
		guard:  guard,
		client: guard.NewSafeClient(timeout),
	}
}

// Fetch はアバター画像を取得し、画像データとMIMEタイプを返す。
// URL検証失敗、非2xx応答、画像以外のContent-Type、サイズ超過はエラー。
func (f *AvatarFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.guard.ValidateURL(rawURL); err != nil {
		return nil, "", fmt.Errorf("avatar URL validation failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create avatar request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("avatar fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("avatar fetch failed with status %d", resp.StatusCode)
	}

	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", fmt.Errorf("unexpected avatar content type: %s", mime)
	}

	// サイズ上限+1バイトまで読み、超過を検出する
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read avatar body: %w", err)
	}
	if len(data) > maxAvatarSize {
		return nil, "", fmt.Errorf("avatar exceeds size limit of %d bytes", maxAvatarSize)
	}

	return data, mime, nil
}
