package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore はPostgreSQLバックエンドのセッションストア。
// sessionsテーブルにシリアライズ済みペイロードを保持し、
// 複数インスタンス間でセッションを共有できる。
type PostgresStore struct {
	db    *sql.DB
	codec *CookieCodec
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB, codec *CookieCodec) *PostgresStore {
	return &PostgresStore{db: db, codec: codec}
}

// Load は指定IDのセッションを取得する。
// 未知のIDおよび期限切れ行はnilを返す。ペイロードのデシリアライズ失敗はエラー。
func (p *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	var data string
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM sessions
		 WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`,
		id,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal([]byte(data), session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session %s: %w", id, err)
	}

	return session, nil
}

// Save はセッションをinsert-or-replaceで保存し、署名付きCookie値を返す。
func (p *PostgresStore) Save(ctx context.Context, s *Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	var expiresAt *time.Time
	if s.ExpiresAt != nil {
		t := s.ExpiresAt.UTC()
		expiresAt = &t
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = $2, expires_at = $3`,
		s.ID, string(data), expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return p.codec.Encode(s.ID), nil
}

// Destroy は指定IDのセッションを削除する。対象行がなくてもエラーにならない。
func (p *PostgresStore) Destroy(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Clear は全セッションを削除する。
func (p *PostgresStore) Clear(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
