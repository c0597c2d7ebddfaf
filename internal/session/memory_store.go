package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore はプロセスメモリ上のセッションストア。
// 再起動で全セッションが失われる。プロセス間で状態を共有しないため、
// 複数インスタンス構成では使用しないこと。
// 他バックエンドと挙動を揃えるため、保存時にシリアライズした
// JSONを保持し、Loadで毎回デシリアライズする。
type MemoryStore struct {
	codec *CookieCodec

	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore(codec *CookieCodec) *MemoryStore {
	return &MemoryStore{
		codec:    codec,
		sessions: make(map[string][]byte),
	}
}

// Load は指定IDのセッションを取得する。未知または期限切れはnilを返す。
func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session %s: %w", id, err)
	}

	if session.Expired(time.Now()) {
		// 期限切れエントリはその場で破棄する
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, nil
	}

	return session, nil
}

// Save はセッションを保存し、署名付きCookie値を返す。
func (m *MemoryStore) Save(ctx context.Context, s *Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()

	return m.codec.Encode(s.ID), nil
}

// Destroy は指定IDのセッションを削除する。未知のIDでもエラーにならない。
func (m *MemoryStore) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Clear は全セッションを削除する。
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
