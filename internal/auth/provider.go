// Package auth はOAuth認証フローとセッション確立を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Profile はOAuthプロバイダーから取得したユーザー情報を表す。
type Profile struct {
	Subject string // プロバイダー内で一意のユーザーID
	Email   string
	Name    string
	Picture string // アバター画像URL。空の場合あり
}

// Provider はOAuth認可コードグラントの3ステップを抽象化する。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type Provider interface {
	// Name はアカウント紐付けに使うプロバイダー名を返す（"google" 等）。
	Name() string

	// AuthCodeURL は認可エンドポイントのURLを生成する。
	// stateはコールバックでCSRF検証に使われる。
	AuthCodeURL(state string) string

	// Exchange は認可コードをアクセストークンに交換する。
	// ネットワーク障害、非2xx応答、不正なペイロードはすべて
	// UpstreamErrorになり、使用可能なトークンを黙って返すことはない。
	Exchange(ctx context.Context, code string) (string, error)

	// FetchProfile はアクセストークンでユーザー情報を取得する。
	// 必須フィールド（subject）を欠く応答はUpstreamErrorになる。
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// UpstreamError はOAuthプロバイダー側の障害を表す。
// ハンドラーはこのエラーを「ログイン失敗→サインインへリダイレクト」に
// 変換する。永続化障害（500にすべきもの）とは区別される。
type UpstreamError struct {
	Op  string // "exchange" または "profile"
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("oauth %s failed: %v", e.Op, e.Err)
}

// Unwrap はerrors.Is/Asのために内部エラーを返す。
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError はエラーがUpstreamErrorかどうかを判定する。
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
