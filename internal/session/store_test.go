package session

import "testing"

// 各バックエンドがStoreインターフェースを満たすことを検証
func TestStores_ImplementInterface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*PostgresStore)(nil)
	var _ Store = (*RedisStore)(nil)
}

// NewPostgresStoreが正しく初期化されることを検証
func TestNewPostgresStore_Initializes(t *testing.T) {
	store := NewPostgresStore(nil, NewCookieCodec("secret"))
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

// NewRedisStoreが正しく初期化されることを検証
func TestNewRedisStore_Initializes(t *testing.T) {
	store := NewRedisStore(nil, NewCookieCodec("secret"))
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

// Redisのキーが名前空間プレフィックスを持つことを検証
func TestRedisStore_KeyNamespace(t *testing.T) {
	store := NewRedisStore(nil, NewCookieCodec("secret"))
	if got := store.key("abc"); got != "session:abc" {
		t.Errorf("key = %q, want %q", got, "session:abc")
	}
}
