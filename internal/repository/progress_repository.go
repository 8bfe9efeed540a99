package repository

import (
	"errors"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// 进度行按 (user_id, word_id) 唯一；更新走存储层的 insert-or-update，
// 不做读后写，并发提交同一键也不会产生重复行
var progressUpdateColumns = []string{
	"interval_days", "ease", "due_at", "reps", "lapses", "last_result", "updated_at",
}

func progressUpsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "word_id"}},
		DoUpdates: clause.AssignmentColumns(progressUpdateColumns),
	}
}

func (r *ProgressRepository) Upsert(p *model.WordProgress) error {
	return r.DB.Clauses(progressUpsertClause()).Create(p).Error
}

// BulkUpsert 在一个事务里应用一批进度行，要么全部生效要么全部回滚
func (r *ProgressRepository) BulkUpsert(rows []model.WordProgress) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(progressUpsertClause()).Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ProgressRepository) FindByUserAndWord(userID, wordID uint) (*model.WordProgress, error) {
	var p model.WordProgress
	err := r.DB.Where("user_id = ? AND word_id = ?", userID, wordID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByUser(userID uint) ([]model.WordProgress, error) {
	var rows []model.WordProgress
	err := r.DB.Where("user_id = ?", userID).Order("word_id ASC").Find(&rows).Error
	return rows, err
}
