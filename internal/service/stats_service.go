package service

import (
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/sm2"
)

// MilestoneReps 连续记住 50 次解锁里程碑
const MilestoneReps = 50

type DailyStatStore interface {
	RecordAnswer(userID uint, day time.Time, correct bool) (*model.DailyStat, error)
	Recent(userID uint, days int, now time.Time) ([]model.DailyStat, error)
}

type AchievementStore interface {
	AwardOnce(a *model.Achievement) error
	FindByUserID(userID uint) ([]model.Achievement, error)
}

// StatsService 由每次作答推导每日聚合统计和里程碑
type StatsService struct {
	Daily        DailyStatStore
	Achievements AchievementStore

	Now func() time.Time
}

func NewStatsService(daily DailyStatStore, achievements AchievementStore) *StatsService {
	return &StatsService{
		Daily:        daily,
		Achievements: achievements,
		Now:          time.Now,
	}
}

// ObserveAnswer 把一次作答并入当日统计；
// 连胜达到里程碑阈值时幂等地发放成就
func (s *StatsService) ObserveAnswer(userID uint, grade sm2.Grade, reps int) error {
	day := model.DayOf(s.Now())
	if _, err := s.Daily.RecordAnswer(userID, day, grade.IsCorrect()); err != nil {
		return err
	}

	if reps >= MilestoneReps {
		return s.Achievements.AwardOnce(&model.Achievement{
			UserID:   userID,
			Code:     model.AchievementFiftyStreak,
			Name:     "记忆大师",
			Icon:     "medal",
			EarnedXP: 100,
		})
	}
	return nil
}

func (s *StatsService) RecentStats(userID uint, days int) ([]model.DailyStat, error) {
	if days <= 0 {
		days = 7
	}
	return s.Daily.Recent(userID, days, s.Now())
}

func (s *StatsService) UserAchievements(userID uint) ([]model.Achievement, error) {
	return s.Achievements.FindByUserID(userID)
}
