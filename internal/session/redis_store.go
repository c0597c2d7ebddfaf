package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix はセッションキーの名前空間。
const redisKeyPrefix = "session:"

// RedisStore はRedisバックエンドのセッションストア。
// 有効期限はRedisのTTLに委譲する。期限なしセッションはTTLなしで保存される。
type RedisStore struct {
	client *redis.Client
	codec  *CookieCodec
}

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(client *redis.Client, codec *CookieCodec) *RedisStore {
	return &RedisStore{client: client, codec: codec}
}

func (r *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

// Load は指定IDのセッションを取得する。未知または期限切れ（TTL消滅）はnilを返す。
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal([]byte(val), session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session %s: %w", id, err)
	}

	// TTL消滅前にアプリ側の期限が来ているケースも不在として扱う
	if session.Expired(time.Now()) {
		return nil, nil
	}

	return session, nil
}

// Save はセッションを保存し、署名付きCookie値を返す。
// 期限付きセッションは残り時間をTTLとして設定する。既に期限切れの
// セッションはキーを残さず成功扱いとし、以降のLoadは不在を返す
// （他バックエンドの「保存後にLoadが期限切れを弾く」挙動と揃える）。
func (r *RedisStore) Save(ctx context.Context, s *Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	var ttl time.Duration
	if s.ExpiresAt != nil {
		ttl = time.Until(*s.ExpiresAt)
		if ttl <= 0 {
			if err := r.client.Del(ctx, r.key(s.ID)).Err(); err != nil {
				return "", fmt.Errorf("failed to save session: %w", err)
			}
			return r.codec.Encode(s.ID), nil
		}
	}

	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return r.codec.Encode(s.ID), nil
}

// Destroy は指定IDのセッションを削除する。未知のIDでもエラーにならない。
func (r *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Clear は全セッションを削除する。
// 名前空間プレフィックスに一致するキーをSCANで列挙して削除する。
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
