// Package session 维护学习会话内的短期重排队列：
// 答错的卡片在随后 4-6 张卡之内重新出现，只影响当前会话，
// 不污染持久化的长期调度。
package session

import (
	"fmt"
	"math/rand"
)

// 弱回答重新出现的卡距区间（含两端）
const (
	RequeueMin = 4
	RequeueMax = 6
)

// Scope 标识一个会话范围：某用户 × 某词库选择（DeckID 0 表示全部）
type Scope struct {
	UserID uint
	DeckID uint
}

// Key 生成存储键，所有存储实现共用
func (s Scope) Key() string {
	return fmt.Sprintf("review:%d:%d", s.UserID, s.DeckID)
}

// Entry 队列中等待重新出现的卡片
type Entry struct {
	WordID   uint `json:"wordId"`
	DueAfter int  `json:"dueAfter"` // SeenCounter 达到该值后才可出队
}

// State 一个会话范围的全部状态。队列按插入顺序排列（FIFO），
// 只在出队时移除条目。
type State struct {
	SeenCounter int     `json:"seenCounter"`
	Queue       []Entry `json:"queue"`
}

// Jitter 返回 [min, max] 内的随机偏移，可注入以便测试
type Jitter func(min, max int) int

// DefaultJitter 基于 math/rand 的默认抖动
func DefaultJitter(min, max int) int {
	return min + rand.Intn(max-min+1)
}

// Requeue 为弱回答插入一个待重现条目。
// 同一单词已有未出队的条目时不重复插入，返回 false。
func (s *State) Requeue(wordID uint, jitter Jitter) bool {
	for _, e := range s.Queue {
		if e.WordID == wordID {
			return false
		}
	}
	s.Queue = append(s.Queue, Entry{
		WordID:   wordID,
		DueAfter: s.SeenCounter + jitter(RequeueMin, RequeueMax),
	})
	return true
}

// PopEligible 按插入顺序取出第一个已到重现点的条目。
// 没有可出队的条目时返回 (0, false)，队列不变。
func (s *State) PopEligible() (uint, bool) {
	for i, e := range s.Queue {
		if e.DueAfter <= s.SeenCounter {
			s.Queue = append(s.Queue[:i], s.Queue[i+1:]...)
			return e.WordID, true
		}
	}
	return 0, false
}
