// Package sm2 实现 SuperMemo-2 间隔重复算法的单步计算。
// 纯函数，无 I/O；时间由调用方注入，便于测试。
package sm2

import (
	"fmt"
	"math"
	"time"
)

// Grade 答题评级
type Grade string

const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// 评级到 SM-2 质量分的映射
const (
	qualityAgain = 0
	qualityHard  = 3
	qualityGood  = 4
	qualityEasy  = 5
)

const (
	// DefaultEase 新卡片的初始易度因子
	DefaultEase = 2.5
	// MinEase / MaxEase 易度因子的钳制区间
	MinEase = 1.3
	MaxEase = 2.8
	// passThreshold 质量分低于该值走遗忘分支。
	// 注意边界：hard 映射为 3，不小于 3，所以只有 again 会触发遗忘。
	passThreshold = 3
)

// ParseGrade 校验并解析评级标签
func ParseGrade(s string) (Grade, error) {
	switch Grade(s) {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return Grade(s), nil
	}
	return "", fmt.Errorf("unknown grade %q", s)
}

// Quality 返回评级对应的质量分
func (g Grade) Quality() int {
	switch g {
	case GradeAgain:
		return qualityAgain
	case GradeHard:
		return qualityHard
	case GradeGood:
		return qualityGood
	default:
		return qualityEasy
	}
}

// IsWeak 弱回答（again/hard）需要进入会话内的短期重排队列
func (g Grade) IsWeak() bool {
	return g == GradeAgain || g == GradeHard
}

// IsCorrect 统计口径下的"答对"（good/easy）
func (g Grade) IsCorrect() bool {
	return g == GradeGood || g == GradeEasy
}

// State 一张卡片的持久化调度状态
type State struct {
	IntervalDays int
	Ease         float64
	Reps         int
	Lapses       int
}

// DefaultState 从未学习过的卡片的默认状态
func DefaultState() State {
	return State{Ease: DefaultEase}
}

// Result 一次复习后的新状态与到期时间
type Result struct {
	State
	DueAt time.Time
}

// Review 执行一次 SM-2 状态转移
// 间隔用更新前的易度因子计算，随后再更新并钳制易度因子
func Review(s State, grade Grade, now time.Time) Result {
	if s.Ease == 0 {
		s.Ease = DefaultEase
	}

	quality := grade.Quality()

	if quality < passThreshold {
		// 遗忘：连胜清零，失误计数加一，明天再来
		s.Reps = 0
		s.Lapses++
		s.IntervalDays = 1
	} else {
		s.Reps++
		switch s.Reps {
		case 1:
			s.IntervalDays = 1
		case 2:
			s.IntervalDays = 6
		default:
			next := int(math.Round(float64(s.IntervalDays) * s.Ease))
			if next < 1 {
				next = 1
			}
			s.IntervalDays = next
		}
	}

	q := float64(quality)
	ease := s.Ease + 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ease < MinEase {
		ease = MinEase
	}
	if ease > MaxEase {
		ease = MaxEase
	}
	s.Ease = math.Round(ease*100) / 100

	days := s.IntervalDays
	if days < 1 {
		days = 1
	}

	return Result{
		State: s,
		DueAt: now.UTC().AddDate(0, 0, days),
	}
}
