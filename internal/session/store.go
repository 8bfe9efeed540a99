package session

import (
	"context"
	"sync"
)

// Store 会话状态存储。Update 在单个范围的临界区内执行 fn：
// 同一范围的队列与计数器变更对并发请求原子可见。
type Store interface {
	Update(ctx context.Context, scope Scope, fn func(*State) error) error
}

// MemoryStore 进程内实现，按范围加锁
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]*memoryScope
}

type memoryScope struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]*memoryScope)}
}

func (m *MemoryStore) Update(ctx context.Context, scope Scope, fn func(*State) error) error {
	m.mu.Lock()
	sc, ok := m.scopes[scope.Key()]
	if !ok {
		sc = &memoryScope{}
		m.scopes[scope.Key()] = sc
	}
	m.mu.Unlock()

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// 失败时回滚到变更前的状态
	snapshot := sc.state
	snapshot.Queue = append([]Entry(nil), sc.state.Queue...)

	if err := fn(&sc.state); err != nil {
		sc.state = snapshot
		return err
	}
	return nil
}
