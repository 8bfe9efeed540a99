package controller

import (
	"errors"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/service"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/util"
	"github.com/ordekalo/hebrew-learning-tool-sub000/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	ReviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

// @Summary 获取下一张复习卡片
// @Description 先查会话内重排队列，再按长期调度取到期时间最早的单词
// @Tags 复习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param deckId query int false "词库ID，0或缺省表示全部"
// @Success 200 {object} util.Response
// @Router /api/review/next [get]
func (c *ReviewController) GetNextItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	deckID := util.MustParseUint(ctx.Query("deckId"))

	result, err := c.ReviewService.NextItem(ctx.Request.Context(), user.UserID, deckID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 提交作答
// @Description 记录评级，更新调度状态、每日统计，弱回答进入会话队列
// @Tags 复习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body service.AnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Router /api/review/answer [post]
func (c *ReviewController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ReviewService.SubmitAnswer(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidWordID),
			errors.Is(err, util.ErrInvalidGrade),
			errors.Is(err, util.ErrWordNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.ReviewAnswerCounter.WithLabelValues(req.Grade).Inc()

	util.Success(ctx, result)
}

// @Summary 批量同步进度
// @Description 客户端重连后的对账：整批进度在一个事务内合入，返回服务端权威行
// @Tags 复习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rows body []service.SyncRow true "客户端缓存的进度行"
// @Success 200 {object} util.Response
// @Router /api/review/sync [post]
func (c *ReviewController) BulkSyncProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var rows []service.SyncRow
	if err := ctx.ShouldBindJSON(&rows); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	merged, err := c.ReviewService.BulkSync(user.UserID, rows)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"rows": merged})
}
