package repository

import (
	"errors"
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"

	"gorm.io/gorm"
)

type WordRepository struct {
	DB *gorm.DB
}

func NewWordRepository(db *gorm.DB) *WordRepository {
	return &WordRepository{DB: db}
}

func (r *WordRepository) FindByID(id uint) (*model.Word, error) {
	var word model.Word
	err := r.DB.First(&word, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// dueQuery 构造"到期"谓词：没有进度行或 due_at 为 NULL 视为立即到期。
// FindNextDue 和 CountDue 共用，保证两者的到期口径一致。
func (r *WordRepository) dueQuery(userID, deckID uint, now time.Time) *gorm.DB {
	q := r.DB.Model(&model.Word{}).
		Joins("LEFT JOIN word_progress ON word_progress.word_id = words.id AND word_progress.user_id = ? AND word_progress.deleted_at IS NULL", userID).
		Where("word_progress.id IS NULL OR word_progress.due_at IS NULL OR word_progress.due_at <= ?", now)
	if deckID != 0 {
		q = q.Where("words.deck_id = ?", deckID)
	}
	return q
}

// FindNextDue 返回范围内到期时间最早的一个单词。
// NULL 的 due_at 排在任何时间戳之前；相同到期时间按单词 ID 升序，保证可复现。
func (r *WordRepository) FindNextDue(userID, deckID uint, now time.Time) (*model.Word, error) {
	var word model.Word
	err := r.dueQuery(userID, deckID, now).
		Select("words.*").
		Order("word_progress.due_at IS NOT NULL, word_progress.due_at ASC, words.id ASC").
		First(&word).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// CountDue 统计范围内到期单词数量，用于界面角标
func (r *WordRepository) CountDue(userID, deckID uint, now time.Time) (int64, error) {
	var count int64
	err := r.dueQuery(userID, deckID, now).Count(&count).Error
	return count, err
}
