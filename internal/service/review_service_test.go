package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/session"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/sm2"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/util"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// ---- fakes ----

type fakeProgress struct {
	rows     map[uint]*model.WordProgress // 单用户测试，按 wordID 索引
	failWord uint                         // BulkUpsert 遇到该 wordID 时模拟事务中途失败
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{rows: make(map[uint]*model.WordProgress)}
}

func (f *fakeProgress) Upsert(p *model.WordProgress) error {
	cp := *p
	f.rows[p.WordID] = &cp
	return nil
}

func (f *fakeProgress) BulkUpsert(rows []model.WordProgress) error {
	// 模拟 db.Transaction:全部成功才提交
	for _, r := range rows {
		if f.failWord != 0 && r.WordID == f.failWord {
			return errors.New("simulated mid-batch failure")
		}
	}
	for i := range rows {
		cp := rows[i]
		f.rows[cp.WordID] = &cp
	}
	return nil
}

func (f *fakeProgress) FindByUserAndWord(userID, wordID uint) (*model.WordProgress, error) {
	p, ok := f.rows[wordID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgress) FindByUser(userID uint) ([]model.WordProgress, error) {
	out := make([]model.WordProgress, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID < out[j].WordID })
	return out, nil
}

type fakeWords struct {
	words    map[uint]*model.Word
	progress *fakeProgress
}

func newFakeWords(progress *fakeProgress, ids ...uint) *fakeWords {
	f := &fakeWords{words: make(map[uint]*model.Word), progress: progress}
	for _, id := range ids {
		w := &model.Word{Hebrew: "שלום", Translation: "hello", DeckID: 1}
		w.ID = id
		f.words[id] = w
	}
	return f
}

func (f *fakeWords) FindByID(id uint) (*model.Word, error) {
	w, ok := f.words[id]
	if !ok {
		return nil, nil
	}
	return w, nil
}

func (f *fakeWords) dueIDs(now time.Time) []uint {
	var due []uint
	for id := range f.words {
		p := f.progress.rows[id]
		if p == nil || p.DueAt == nil || !p.DueAt.After(now) {
			due = append(due, id)
		}
	}
	// 与仓库实现一致:NULL 最先，其次 due_at 升序，同值按 ID 升序
	sort.Slice(due, func(i, j int) bool {
		pi, pj := f.progress.rows[due[i]], f.progress.rows[due[j]]
		nullI := pi == nil || pi.DueAt == nil
		nullJ := pj == nil || pj.DueAt == nil
		if nullI != nullJ {
			return nullI
		}
		if !nullI && !pi.DueAt.Equal(*pj.DueAt) {
			return pi.DueAt.Before(*pj.DueAt)
		}
		return due[i] < due[j]
	})
	return due
}

func (f *fakeWords) FindNextDue(userID, deckID uint, now time.Time) (*model.Word, error) {
	due := f.dueIDs(now)
	if len(due) == 0 {
		return nil, nil
	}
	return f.words[due[0]], nil
}

func (f *fakeWords) CountDue(userID, deckID uint, now time.Time) (int64, error) {
	return int64(len(f.dueIDs(now))), nil
}

type fakeObserver struct {
	grades []sm2.Grade
	reps   []int
}

func (f *fakeObserver) ObserveAnswer(userID uint, grade sm2.Grade, reps int) error {
	f.grades = append(f.grades, grade)
	f.reps = append(f.reps, reps)
	return nil
}

func newTestService(wordIDs ...uint) (*ReviewService, *fakeProgress, *fakeObserver) {
	progress := newFakeProgress()
	words := newFakeWords(progress, wordIDs...)
	observer := &fakeObserver{}
	svc := NewReviewService(words, progress, observer, session.NewMemoryStore())
	svc.Now = func() time.Time { return testNow }
	svc.Jitter = func(min, max int) int { return 4 }
	return svc, progress, observer
}

// ---- tests ----

func TestSubmitAnswerValidation(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()

	if _, err := svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: 0, Grade: "good"}); !errors.Is(err, util.ErrInvalidWordID) {
		t.Errorf("zero word id: err = %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: -3, Grade: "good"}); !errors.Is(err, util.ErrInvalidWordID) {
		t.Errorf("negative word id: err = %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: 1, Grade: "great"}); !errors.Is(err, util.ErrInvalidGrade) {
		t.Errorf("bad grade: err = %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: 999, Grade: "good"}); !errors.Is(err, util.ErrWordNotFound) {
		t.Errorf("missing word: err = %v", err)
	}
}

// 规格化的端到端场景:新卡 → good → good → again
func TestReviewSessionEndToEnd(t *testing.T) {
	svc, progress, _ := newTestService(1)
	ctx := context.Background()
	userID := uint(1)

	// 从未学习过的卡片:立即到期，source=due
	next, err := svc.NextItem(ctx, userID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next.Item == nil || next.Item.ID != 1 {
		t.Fatalf("next item = %+v, want word 1", next.Item)
	}
	if next.Source != SourceDue {
		t.Errorf("source = %q, want %q", next.Source, SourceDue)
	}
	if next.DueCount != 1 {
		t.Errorf("dueCount = %d, want 1", next.DueCount)
	}

	// 第一次 good:reps=1, interval=1, ease 不变
	res, err := svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "good"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Next.Reps != 1 || res.Next.IntervalDays != 1 || res.Next.Ease != 2.5 {
		t.Errorf("after first good: %+v", res.Next)
	}
	if res.Next.DueAt == nil || !res.Next.DueAt.After(testNow) {
		t.Errorf("dueAt %v not in future", res.Next.DueAt)
	}

	// 第二次 good:reps=2, interval=6
	res, err = svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "good"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Next.Reps != 2 || res.Next.IntervalDays != 6 || res.Next.Ease != 2.5 {
		t.Errorf("after second good: %+v", res.Next)
	}

	// again:连胜清零、失误加一、明天到期、ease 下降
	res, err = svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "again"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Next.Reps != 0 || res.Next.Lapses != 1 || res.Next.IntervalDays != 1 {
		t.Errorf("after again: %+v", res.Next)
	}
	if res.Next.Ease >= 2.5 {
		t.Errorf("ease = %v, should drop toward 1.3", res.Next.Ease)
	}

	// 弱回答进了会话队列:dueAfter 在当前计数器之上 4-6 张
	scope := session.Scope{UserID: userID, DeckID: 0}
	svc.Sessions.Update(ctx, scope, func(st *session.State) error {
		if len(st.Queue) != 1 {
			t.Fatalf("queue len = %d, want 1", len(st.Queue))
		}
		offset := st.Queue[0].DueAfter - st.SeenCounter
		if offset < session.RequeueMin || offset > session.RequeueMax {
			t.Errorf("dueAfter offset = %d, want in [%d,%d]", offset, session.RequeueMin, session.RequeueMax)
		}
		return nil
	})

	// 持久化的行始终只有一条(upsert 不复制)
	rows, _ := progress.FindByUser(userID)
	if len(rows) != 1 {
		t.Errorf("progress rows = %d, want 1", len(rows))
	}
}

func TestNextItemServesRequeuedWordAfterWindow(t *testing.T) {
	svc, _, _ := newTestService(1, 2, 3, 4, 5, 6)
	ctx := context.Background()
	userID := uint(1)

	// 答错单词 1，jitter 固定为 4
	if _, err := svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "again"}); err != nil {
		t.Fatal(err)
	}

	// 接下来 4 张由长期调度给出并逐张答对(单词 1 要到计数器≥4 才重现，
	// 且它的 due_at 已是明天，不参与到期选择)
	want := []uint{2, 3, 4, 5}
	for i, id := range want {
		next, err := svc.NextItem(ctx, userID, 0)
		if err != nil {
			t.Fatal(err)
		}
		if next.Source != SourceDue {
			t.Fatalf("card %d: source = %q, want due", i, next.Source)
		}
		if next.Item.ID != id {
			t.Fatalf("card %d: got word %d, want %d", i, next.Item.ID, id)
		}
		if _, err := svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: int64(id), Grade: "good"}); err != nil {
			t.Fatal(err)
		}
	}

	// 第 5 次请求:队列条目已到重现点，优先于长期调度
	next, err := svc.NextItem(ctx, userID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next.Source != SourceReview {
		t.Errorf("source = %q, want review", next.Source)
	}
	if next.Item == nil || next.Item.ID != 1 {
		t.Errorf("item = %+v, want requeued word 1", next.Item)
	}
}

func TestNextItemEmptyDoesNotAdvanceCounter(t *testing.T) {
	svc, progress, _ := newTestService(1)
	ctx := context.Background()
	userID := uint(1)

	// 把唯一的卡片学到未来
	due := testNow.AddDate(0, 0, 6)
	progress.rows[1] = &model.WordProgress{UserID: userID, WordID: 1, DueAt: &due}

	next, err := svc.NextItem(ctx, userID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next.Item != nil || next.Source != SourceEmpty || next.DueCount != 0 {
		t.Errorf("result = %+v, want empty", next)
	}

	svc.Sessions.Update(ctx, session.Scope{UserID: userID}, func(st *session.State) error {
		if st.SeenCounter != 0 {
			t.Errorf("seenCounter = %d, want 0 on empty result", st.SeenCounter)
		}
		return nil
	})
}

func TestSelectDueNeverReturnsFutureItem(t *testing.T) {
	svc, progress, _ := newTestService(1, 2)
	ctx := context.Background()
	userID := uint(1)

	future := testNow.AddDate(0, 0, 3)
	past := testNow.AddDate(0, 0, -1)
	progress.rows[1] = &model.WordProgress{UserID: userID, WordID: 1, DueAt: &future}
	progress.rows[2] = &model.WordProgress{UserID: userID, WordID: 2, DueAt: &past}

	next, err := svc.NextItem(ctx, userID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next.Item == nil || next.Item.ID != 2 {
		t.Errorf("item = %+v, want overdue word 2", next.Item)
	}
	if next.DueCount != 1 {
		t.Errorf("dueCount = %d, want 1", next.DueCount)
	}
}

func TestWeakAnswerDoesNotDuplicateQueueEntry(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()
	userID := uint(1)

	svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "again"})
	svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "hard"})

	svc.Sessions.Update(ctx, session.Scope{UserID: userID}, func(st *session.State) error {
		if len(st.Queue) != 1 {
			t.Errorf("queue len = %d, want 1 (no duplicates)", len(st.Queue))
		}
		return nil
	})
}

func TestHardAnswerRequeuesButKeepsStreak(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()
	userID := uint(1)

	res, err := svc.SubmitAnswer(ctx, userID, AnswerRequest{WordID: 1, Grade: "hard"})
	if err != nil {
		t.Fatal(err)
	}
	// hard 走成功分支
	if res.Next.Reps != 1 || res.Next.Lapses != 0 {
		t.Errorf("hard answer: %+v, want reps=1 lapses=0", res.Next)
	}
	// 但作为弱回答仍进入会话队列
	svc.Sessions.Update(ctx, session.Scope{UserID: userID}, func(st *session.State) error {
		if len(st.Queue) != 1 {
			t.Errorf("queue len = %d, want 1", len(st.Queue))
		}
		return nil
	})
}

func TestBulkSyncSkipsNonPositiveIDs(t *testing.T) {
	svc, progress, _ := newTestService(1, 2)

	rows, err := svc.BulkSync(1, []SyncRow{
		{WordID: -1, Reps: 9},
		{WordID: 0, Reps: 9},
		{WordID: 1, IntervalDays: 6, Ease: 2.5, Reps: 2, LastResult: "good"},
		{WordID: 2, IntervalDays: 1, Ease: 1.8, Reps: 0, Lapses: 1, LastResult: "again"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("merged rows = %d, want 2", len(rows))
	}
	if len(progress.rows) != 2 {
		t.Errorf("stored rows = %d, want 2 (invalid ids skipped)", len(progress.rows))
	}
}

func TestBulkSyncSanitizesClientRows(t *testing.T) {
	svc, progress, _ := newTestService(1, 2)

	_, err := svc.BulkSync(1, []SyncRow{
		{WordID: 1, IntervalDays: -5, Ease: 99.9, Reps: -3, Lapses: -1, LastResult: "good"},
		{WordID: 2, IntervalDays: 6, Reps: 2, LastResult: "good"}, // ease 缺省为 0
	})
	if err != nil {
		t.Fatal(err)
	}

	p := progress.rows[1]
	if p.Ease < sm2.MinEase || p.Ease > sm2.MaxEase {
		t.Errorf("ease = %v, want clamped into [%v,%v]", p.Ease, sm2.MinEase, sm2.MaxEase)
	}
	if p.IntervalDays != 0 || p.Reps != 0 || p.Lapses != 0 {
		t.Errorf("negative counters persisted: interval=%d reps=%d lapses=%d, want 0/0/0",
			p.IntervalDays, p.Reps, p.Lapses)
	}
	if progress.rows[2].Ease != sm2.DefaultEase {
		t.Errorf("zero ease = %v, want default %v", progress.rows[2].Ease, sm2.DefaultEase)
	}
}

func TestBulkSyncAllOrNothing(t *testing.T) {
	svc, progress, _ := newTestService(1, 2, 3)
	progress.failWord = 2

	_, err := svc.BulkSync(1, []SyncRow{
		{WordID: 1, Reps: 1},
		{WordID: 2, Reps: 1},
		{WordID: 3, Reps: 1},
	})
	if err == nil {
		t.Fatal("expected simulated failure")
	}
	if len(progress.rows) != 0 {
		t.Errorf("partial rows persisted: %d, want 0 after rollback", len(progress.rows))
	}
}

func TestSubmitAnswerFeedsStatsTracker(t *testing.T) {
	svc, _, observer := newTestService(1)
	ctx := context.Background()

	svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: 1, Grade: "good"})
	svc.SubmitAnswer(ctx, 1, AnswerRequest{WordID: 1, Grade: "again"})

	if len(observer.grades) != 2 {
		t.Fatalf("observer calls = %d, want 2", len(observer.grades))
	}
	if observer.grades[0] != sm2.GradeGood || observer.reps[0] != 1 {
		t.Errorf("first call = (%s, %d)", observer.grades[0], observer.reps[0])
	}
	if observer.grades[1] != sm2.GradeAgain || observer.reps[1] != 0 {
		t.Errorf("second call = (%s, %d)", observer.grades[1], observer.reps[1])
	}
}
