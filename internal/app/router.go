package app

import (
	"github.com/ordekalo/hebrew-learning-tool-sub000/docs"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/config"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/middleware"
	"github.com/ordekalo/hebrew-learning-tool-sub000/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 复习会话接口,身份由外部服务签发的 JWT 提供
	review := router.Group("/api/review")
	review.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		review.GET("/next", c.review.GetNextItem)
		review.POST("/answer", c.review.SubmitAnswer)
		review.POST("/sync", c.review.BulkSyncProgress)

		review.GET("/stats", c.stats.GetDailyStats)
		review.GET("/achievements", c.stats.GetAchievements)
	}
}
