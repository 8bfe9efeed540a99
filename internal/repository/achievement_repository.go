package repository

import (
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

// AwardOnce 幂等地为用户解锁一个里程碑。
// (user_id, code) 唯一约束加 DO NOTHING：重复触发同一里程碑是空操作。
func (r *AchievementRepository) AwardOnce(a *model.Achievement) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
		DoNothing: true,
	}).Create(a).Error
}

func (r *AchievementRepository) FindByUserID(userID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&achievements).Error
	return achievements, err
}
