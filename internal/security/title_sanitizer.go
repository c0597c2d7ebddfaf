// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TitleSanitizerService はユーザー入力のルーティンタイトルを
// サニタイズし、保存したタイトルがそのままHTMLに埋め込まれた場合の
// XSSを防ぐ。bluemondayのStrictPolicyで全タグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizerService はタイトルのサニタイズ機能のインターフェースを定義する。
// ルーティン作成時の保存前に使用される。
type TitleSanitizerService interface {
	// Sanitize はタイトルからすべてのHTMLタグを除去し、
	// 前後の空白を取り除いたプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(title string) string
}

// titleSanitizer はTitleSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type titleSanitizer struct {
	policy *bluemonday.Policy
}

// NewTitleSanitizer はTitleSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、scriptタグやon*イベント属性を
// 含むあらゆるマークアップが除去される。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタイトルからすべてのHTMLタグを除去する。
func (s *titleSanitizer) Sanitize(title string) string {
	return strings.TrimSpace(s.policy.Sanitize(title))
}

// compile-time interface check
var _ TitleSanitizerService = (*titleSanitizer)(nil)
