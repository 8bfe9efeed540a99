package service

import (
	"testing"
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/sm2"
)

type fakeDaily struct {
	stats     map[string]*model.DailyStat
	recentNow time.Time
}

func newFakeDaily() *fakeDaily {
	return &fakeDaily{stats: make(map[string]*model.DailyStat)}
}

func (f *fakeDaily) RecordAnswer(userID uint, day time.Time, correct bool) (*model.DailyStat, error) {
	key := day.Format("2006-01-02")
	stat, ok := f.stats[key]
	if !ok {
		stat = &model.DailyStat{UserID: userID, Day: day}
		f.stats[key] = stat
	}
	stat.Apply(correct)
	cp := *stat
	return &cp, nil
}

func (f *fakeDaily) Recent(userID uint, days int, now time.Time) ([]model.DailyStat, error) {
	f.recentNow = now
	var out []model.DailyStat
	for _, s := range f.stats {
		out = append(out, *s)
	}
	return out, nil
}

type fakeAchievements struct {
	codes map[string]int // code → 发放次数(含被幂等拒绝的)
	rows  []model.Achievement
}

func newFakeAchievements() *fakeAchievements {
	return &fakeAchievements{codes: make(map[string]int)}
}

func (f *fakeAchievements) AwardOnce(a *model.Achievement) error {
	f.codes[a.Code]++
	if f.codes[a.Code] == 1 {
		f.rows = append(f.rows, *a)
	}
	return nil
}

func (f *fakeAchievements) FindByUserID(userID uint) ([]model.Achievement, error) {
	return f.rows, nil
}

func newTestStats() (*StatsService, *fakeDaily, *fakeAchievements) {
	daily := newFakeDaily()
	achievements := newFakeAchievements()
	svc := NewStatsService(daily, achievements)
	svc.Now = func() time.Time { return testNow }
	return svc, daily, achievements
}

func TestObserveAnswerSeedsFirstDailyStat(t *testing.T) {
	svc, daily, _ := newTestStats()

	if err := svc.ObserveAnswer(1, sm2.GradeGood, 1); err != nil {
		t.Fatal(err)
	}

	stat := daily.stats[model.DayOf(testNow).Format("2006-01-02")]
	if stat == nil {
		t.Fatal("no daily stat created")
	}
	if stat.LearnedCount != 1 || stat.CorrectRate != 100 {
		t.Errorf("stat = %+v, want count=1 rate=100", stat)
	}
}

func TestObserveAnswerWeightedAverage(t *testing.T) {
	svc, daily, _ := newTestStats()

	// good, easy, again, hard → 2/4 正确(hard 不算答对)
	for _, g := range []sm2.Grade{sm2.GradeGood, sm2.GradeEasy, sm2.GradeAgain, sm2.GradeHard} {
		if err := svc.ObserveAnswer(1, g, 0); err != nil {
			t.Fatal(err)
		}
	}

	stat := daily.stats[model.DayOf(testNow).Format("2006-01-02")]
	if stat.LearnedCount != 4 {
		t.Errorf("count = %d, want 4", stat.LearnedCount)
	}
	if stat.CorrectRate != 50 {
		t.Errorf("rate = %v, want 50", stat.CorrectRate)
	}
}

func TestWeightedAverageRounding(t *testing.T) {
	svc, daily, _ := newTestStats()

	// 2 正确 1 错误 → 66.67
	svc.ObserveAnswer(1, sm2.GradeGood, 0)
	svc.ObserveAnswer(1, sm2.GradeGood, 0)
	svc.ObserveAnswer(1, sm2.GradeAgain, 0)

	stat := daily.stats[model.DayOf(testNow).Format("2006-01-02")]
	if stat.CorrectRate != 66.67 {
		t.Errorf("rate = %v, want 66.67", stat.CorrectRate)
	}
}

func TestRecentStatsUsesInjectedClock(t *testing.T) {
	svc, daily, _ := newTestStats()

	if _, err := svc.RecentStats(1, 0); err != nil {
		t.Fatal(err)
	}
	if !daily.recentNow.Equal(testNow) {
		t.Errorf("reference time = %v, want injected %v", daily.recentNow, testNow)
	}
}

func TestMilestoneAwardedAtThreshold(t *testing.T) {
	svc, _, achievements := newTestStats()

	svc.ObserveAnswer(1, sm2.GradeGood, MilestoneReps-1)
	if len(achievements.rows) != 0 {
		t.Errorf("milestone awarded below threshold")
	}

	svc.ObserveAnswer(1, sm2.GradeGood, MilestoneReps)
	if len(achievements.rows) != 1 {
		t.Fatalf("achievements = %d, want 1", len(achievements.rows))
	}
	if achievements.rows[0].Code != model.AchievementFiftyStreak {
		t.Errorf("code = %q", achievements.rows[0].Code)
	}
}

func TestMilestoneSignalIdempotent(t *testing.T) {
	svc, _, achievements := newTestStats()

	// 阈值之上反复触发，成就只记录一次
	for reps := MilestoneReps; reps < MilestoneReps+5; reps++ {
		if err := svc.ObserveAnswer(1, sm2.GradeEasy, reps); err != nil {
			t.Fatal(err)
		}
	}
	if len(achievements.rows) != 1 {
		t.Errorf("achievements = %d, want 1", len(achievements.rows))
	}
	if achievements.codes[model.AchievementFiftyStreak] != 5 {
		t.Errorf("signal count = %d, want 5 (repeats are no-ops)", achievements.codes[model.AchievementFiftyStreak])
	}
}
