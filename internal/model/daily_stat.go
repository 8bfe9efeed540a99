package model

import (
	"math"
	"time"
)

// DailyStat 记录用户每个 UTC 日历日的学习聚合数据
// swagger:model DailyStat
type DailyStat struct {
	BaseModel
	UserID       uint      `gorm:"index:idx_user_day,unique;type:bigint unsigned;not null" json:"userId"`
	Day          time.Time `gorm:"type:date;index:idx_user_day,unique;not null" json:"day"`
	LearnedCount int       `gorm:"default:0" json:"learnedCount"`
	CorrectRate  float64   `gorm:"default:0" json:"correctRate"` // 百分比 0-100
}

func (DailyStat) TableName() string {
	return "daily_stats"
}

// Apply 把一次作答并入当日统计：计数加一，正确率按加权平均更新
func (d *DailyStat) Apply(correct bool) {
	hit := 0.0
	if correct {
		hit = 1.0
	}
	oldCount := float64(d.LearnedCount)
	d.LearnedCount++
	rate := (d.CorrectRate*oldCount/100 + hit) / float64(d.LearnedCount) * 100
	d.CorrectRate = math.Round(rate*100) / 100
}

// DayOf 把任意时刻归一化到所属的 UTC 日历日
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
