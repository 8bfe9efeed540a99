package controller

import (
	"strconv"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/service"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// @Summary 获取每日学习统计
// @Description 最近 N 天的学习数量和正确率
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param days query int false "天数，默认7"
// @Success 200 {object} util.Response
// @Router /api/review/stats [get]
func (c *StatsController) GetDailyStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days, _ := strconv.Atoi(ctx.DefaultQuery("days", "7"))

	stats, err := c.StatsService.RecentStats(user.UserID, days)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"stats": stats})
}

// @Summary 获取已解锁的成就
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/review/achievements [get]
func (c *StatsController) GetAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.StatsService.UserAchievements(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"achievements": achievements})
}
