package repository

import (
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// RecordAnswer 把一次作答并入 (用户, 日) 的聚合行。
// 先用 DO NOTHING 确保当日的行存在再锁行更新，
// 并发的首次作答不会撞 (user_id, day) 唯一索引。
func (r *StatsRepository) RecordAnswer(userID uint, day time.Time, correct bool) (*model.DailyStat, error) {
	var stat model.DailyStat
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		seed := model.DailyStat{UserID: userID, Day: day}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND day = ?", userID, day).
			First(&stat).Error; err != nil {
			return err
		}
		stat.Apply(correct)
		return tx.Save(&stat).Error
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// Recent 返回 now 之前 days 天内的统计行，按日期倒序。
// 参考时间由调用方传入，不直接读墙钟。
func (r *StatsRepository) Recent(userID uint, days int, now time.Time) ([]model.DailyStat, error) {
	since := model.DayOf(now).AddDate(0, 0, -days)
	var rows []model.DailyStat
	err := r.DB.Where("user_id = ? AND day > ?", userID, since).
		Order("day DESC").
		Find(&rows).Error
	return rows, err
}
