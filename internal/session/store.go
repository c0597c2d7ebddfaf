package session

import "context"

// Store はセッションの永続化インターフェース。
// メモリ・PostgreSQL・Redisの3実装が同一の外部挙動を提供する。
// バックエンドは起動時に設定で選択される。
type Store interface {
	// Load は指定IDのセッションを取得する。
	// 未知のIDおよび期限切れはエラーではなくnilを返す。
	// ペイロードが壊れていてデシリアライズできない場合はエラーを返す。
	Load(ctx context.Context, id string) (*Session, error)

	// Save はセッションを保存（insert-or-replace）し、
	// Cookieに設定する署名付き値を返す。
	Save(ctx context.Context, s *Session) (string, error)

	// Destroy は指定IDのセッションを削除する。
	// 未知のIDの削除はエラーにならない（冪等）。
	Destroy(ctx context.Context, id string) error

	// Clear は全セッションを削除する。運用・テスト用の操作。
	Clear(ctx context.Context) error
}
