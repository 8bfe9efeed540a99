package service

import (
	"context"
	"time"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/session"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/sm2"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/util"
)

// 下一张卡片的来源标签
const (
	SourceReview = "review" // 会话内重排队列
	SourceDue    = "due"    // 长期调度
	SourceEmpty  = "empty"  // 范围内没有到期卡片
)

type WordFinder interface {
	FindByID(id uint) (*model.Word, error)
	FindNextDue(userID, deckID uint, now time.Time) (*model.Word, error)
	CountDue(userID, deckID uint, now time.Time) (int64, error)
}

type ProgressStore interface {
	Upsert(p *model.WordProgress) error
	BulkUpsert(rows []model.WordProgress) error
	FindByUserAndWord(userID, wordID uint) (*model.WordProgress, error)
	FindByUser(userID uint) ([]model.WordProgress, error)
}

type AnswerObserver interface {
	ObserveAnswer(userID uint, grade sm2.Grade, reps int) error
}

// ReviewService 复习会话编排：
// 取下一张卡片时先问会话队列再查长期调度，
// 记录作答时依次完成状态转移、持久化、统计和弱回答重排。
type ReviewService struct {
	Words    WordFinder
	Progress ProgressStore
	Stats    AnswerObserver
	Sessions session.Store

	// 时钟和抖动可注入，测试用
	Now    func() time.Time
	Jitter session.Jitter
}

func NewReviewService(words WordFinder, progress ProgressStore, stats AnswerObserver, sessions session.Store) *ReviewService {
	return &ReviewService{
		Words:    words,
		Progress: progress,
		Stats:    stats,
		Sessions: sessions,
		Now:      time.Now,
		Jitter:   session.DefaultJitter,
	}
}

// ItemPayload 卡片展示数据加只读的调度状态
type ItemPayload struct {
	model.Word
	IntervalDays int     `json:"intervalDays"`
	Ease         float64 `json:"ease"`
	Reps         int     `json:"reps"`
	Lapses       int     `json:"lapses"`
}

type NextItemResult struct {
	Item     *ItemPayload `json:"item"`
	DueCount int64        `json:"dueCount"`
	Source   string       `json:"source"`
}

// AnswerRequest 作答提交
type AnswerRequest struct {
	WordID int64  `json:"wordId" binding:"required"`
	Grade  string `json:"grade" binding:"required"`
	DeckID uint   `json:"deckId"`
}

type AnswerResult struct {
	Next     model.WordProgress `json:"next"`
	DueCount int64              `json:"dueCount"`
}

// SyncRow 客户端缓存的一行进度，用于断线重连后的对账
type SyncRow struct {
	WordID       int64      `json:"wordId"`
	IntervalDays int        `json:"intervalDays"`
	Ease         float64    `json:"ease"`
	DueAt        *time.Time `json:"dueAt"`
	Reps         int        `json:"reps"`
	Lapses       int        `json:"lapses"`
	LastResult   string     `json:"lastResult"`
}

// NextItem 取会话内的下一张卡片。
// 先扫描会话队列里已到重现点的条目，没有再委托长期调度；
// 两者都没有时 source=empty 且计数器不动。
func (s *ReviewService) NextItem(ctx context.Context, userID, deckID uint) (*NextItemResult, error) {
	scope := session.Scope{UserID: userID, DeckID: deckID}
	now := s.Now()

	var served *model.Word
	source := SourceEmpty

	err := s.Sessions.Update(ctx, scope, func(st *session.State) error {
		for {
			wordID, ok := st.PopEligible()
			if !ok {
				break
			}
			w, err := s.Words.FindByID(wordID)
			if err != nil {
				return err
			}
			if w == nil {
				// 单词已被外部录入模块删除，丢弃过期的队列条目
				continue
			}
			st.SeenCounter++
			served = w
			source = SourceReview
			return nil
		}

		w, err := s.Words.FindNextDue(userID, deckID, now)
		if err != nil {
			return err
		}
		if w != nil {
			st.SeenCounter++
			served = w
			source = SourceDue
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dueCount, err := s.Words.CountDue(userID, deckID, now)
	if err != nil {
		return nil, err
	}

	res := &NextItemResult{DueCount: dueCount, Source: source}
	if served != nil {
		payload := &ItemPayload{Word: *served, Ease: sm2.DefaultEase}
		p, err := s.Progress.FindByUserAndWord(userID, served.ID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			payload.IntervalDays = p.IntervalDays
			payload.Ease = p.Ease
			payload.Reps = p.Reps
			payload.Lapses = p.Lapses
		}
		res.Item = payload
	}
	return res, nil
}

// SubmitAnswer 记录一次作答并返回更新后的进度
func (s *ReviewService) SubmitAnswer(ctx context.Context, userID uint, req AnswerRequest) (*AnswerResult, error) {
	if req.WordID <= 0 {
		return nil, util.ErrInvalidWordID
	}
	grade, err := sm2.ParseGrade(req.Grade)
	if err != nil {
		return nil, util.ErrInvalidGrade
	}

	word, err := s.Words.FindByID(uint(req.WordID))
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, util.ErrWordNotFound
	}

	state := sm2.DefaultState()
	existing, err := s.Progress.FindByUserAndWord(userID, word.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		state = sm2.State{
			IntervalDays: existing.IntervalDays,
			Ease:         existing.Ease,
			Reps:         existing.Reps,
			Lapses:       existing.Lapses,
		}
	}

	now := s.Now()
	result := sm2.Review(state, grade, now)

	progress := &model.WordProgress{
		UserID:       userID,
		WordID:       word.ID,
		IntervalDays: result.IntervalDays,
		Ease:         result.Ease,
		DueAt:        &result.DueAt,
		Reps:         result.Reps,
		Lapses:       result.Lapses,
		LastResult:   string(grade),
	}
	if existing != nil {
		progress.ID = existing.ID
		progress.CreatedAt = existing.CreatedAt
	}

	if err := s.Progress.Upsert(progress); err != nil {
		return nil, err
	}

	if err := s.Stats.ObserveAnswer(userID, grade, result.Reps); err != nil {
		return nil, err
	}

	if grade.IsWeak() {
		scope := session.Scope{UserID: userID, DeckID: req.DeckID}
		err := s.Sessions.Update(ctx, scope, func(st *session.State) error {
			st.Requeue(word.ID, s.Jitter)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	dueCount, err := s.Words.CountDue(userID, req.DeckID, now)
	if err != nil {
		return nil, err
	}

	return &AnswerResult{Next: *progress, DueCount: dueCount}, nil
}

// sanitize 把客户端上报的行拉回合法取值范围。
// 客户端缓存不可信：易度因子钳回区间，计数类字段不允许为负。
func (row SyncRow) sanitize() SyncRow {
	if row.Ease == 0 {
		row.Ease = sm2.DefaultEase
	}
	if row.Ease < sm2.MinEase {
		row.Ease = sm2.MinEase
	}
	if row.Ease > sm2.MaxEase {
		row.Ease = sm2.MaxEase
	}
	if row.IntervalDays < 0 {
		row.IntervalDays = 0
	}
	if row.Reps < 0 {
		row.Reps = 0
	}
	if row.Lapses < 0 {
		row.Lapses = 0
	}
	return row
}

// BulkSync 把客户端缓存的进度批量并入服务端，整批在一个事务里提交，
// 之后返回服务端的权威进度行。wordId 非正的行跳过，不报错；
// 其余字段先经 sanitize 修正再入库。
func (s *ReviewService) BulkSync(userID uint, rows []SyncRow) ([]model.WordProgress, error) {
	batch := make([]model.WordProgress, 0, len(rows))
	for _, row := range rows {
		if row.WordID <= 0 {
			continue
		}
		row = row.sanitize()
		batch = append(batch, model.WordProgress{
			UserID:       userID,
			WordID:       uint(row.WordID),
			IntervalDays: row.IntervalDays,
			Ease:         row.Ease,
			DueAt:        row.DueAt,
			Reps:         row.Reps,
			Lapses:       row.Lapses,
			LastResult:   row.LastResult,
		})
	}

	if err := s.Progress.BulkUpsert(batch); err != nil {
		return nil, err
	}
	return s.Progress.FindByUser(userID)
}
