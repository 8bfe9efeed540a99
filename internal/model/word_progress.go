package model

import (
	"time"
)

// WordProgress 每个 (用户, 单词) 唯一一行的复习进度
// DueAt 为 NULL 表示从未学习过，视为立即到期
type WordProgress struct {
	BaseModel
	UserID       uint       `gorm:"index:idx_user_word,unique;type:bigint unsigned;not null" json:"userId"`
	WordID       uint       `gorm:"index:idx_user_word,unique;type:bigint unsigned;not null" json:"wordId"`
	IntervalDays int        `gorm:"default:0" json:"intervalDays"`
	Ease         float64    `gorm:"default:2.5" json:"ease"`
	DueAt        *time.Time `gorm:"index" json:"dueAt"`
	Reps         int        `gorm:"default:0" json:"reps"`
	Lapses       int        `gorm:"default:0" json:"lapses"`
	LastResult   string     `gorm:"size:10" json:"lastResult"`
}

func (WordProgress) TableName() string {
	return "word_progress"
}
