// Package session はCookieベースのログインセッションを提供する。
// セッション本体はサーバー側のStoreが所有し、クライアントのCookieは
// 署名付きのセッションID参照のみを保持する。
package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// UserKey はセッションペイロード内でログインユーザーを保持するキー。
const UserKey = "user"

// Session はサーバー側に保持する認証済みブラウザコンテキストを表す。
// Valuesは名前付き値のマップで、各値はJSONとしてシリアライズされる。
type Session struct {
	ID        string                     `json:"id"`
	Values    map[string]json.RawMessage `json:"values"`
	ExpiresAt *time.Time                 `json:"expires_at,omitempty"`
}

// New は暗号的に安全なIDを持つ空のセッションを生成する。
func New() (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	return &Session{
		ID:     id,
		Values: make(map[string]json.RawMessage),
	}, nil
}

// Set は値をJSONにシリアライズしてセッションに格納する。
func (s *Session) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize session value %q: %w", key, err)
	}
	if s.Values == nil {
		s.Values = make(map[string]json.RawMessage)
	}
	s.Values[key] = data
	return nil
}

// Get はセッションから値を読み出してdstにデシリアライズする。
// キーが存在しない場合はfalseを返す。デシリアライズ失敗はエラー。
func (s *Session) Get(key string, dst any) (bool, error) {
	raw, ok := s.Values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to deserialize session value %q: %w", key, err)
	}
	return true, nil
}

// SetExpiry はセッションの有効期限を設定する。
func (s *Session) SetExpiry(t time.Time) {
	s.ExpiresAt = &t
}

// Expired はセッションが期限切れかどうかを返す。
// 期限未設定のセッションは期限切れにならない。
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// generateID は暗号的に安全なセッションIDを生成する。
// 32バイト（256ビット）のエントロピーをURL-safeな形式で返す。
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
