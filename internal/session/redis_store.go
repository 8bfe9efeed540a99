package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// 会话状态的保留时长，超时视为会话结束
const defaultTTL = 12 * time.Hour

// RedisStore 把会话状态以 JSON 存在 Redis。
// 会话范围不跨节点共享，所以读-改-写不需要分布式锁；
// 同一进程内仍按范围串行化。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     keyedMutex
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: defaultTTL}
}

func (r *RedisStore) Update(ctx context.Context, scope Scope, fn func(*State) error) error {
	key := scope.Key()
	unlock := r.mu.lock(key)
	defer unlock()

	var state State
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &state); err != nil {
			// 损坏的会话状态直接丢弃，从空会话重新开始
			state = State{}
		}
	}

	if err := fn(&state); err != nil {
		return err
	}

	out, err := json.Marshal(&state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, out, r.ttl).Err()
}

// keyedMutex 按键串行化的一组互斥锁
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
