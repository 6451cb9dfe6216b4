package app

import (
	"courtcert_backend/docs"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/middleware"
	"courtcert_backend/internal/model"
	"courtcert_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerExamRoutes(authGroup, c)
		a.registerCertificateRoutes(authGroup, c)
		authGroup.GET("/attorneys/resolve", c.attorney.Resolve)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/public/certificates/verify/:code", c.certificate.Verify)
	}
}

func (a *App) registerExamRoutes(group *gin.RouterGroup, c *controllers) {
	exams := group.Group("/exams")
	{
		exams.POST("/:courseId/start", c.exam.StartOrResume)
		exams.POST("/:courseId/restart", c.exam.Restart)
		exams.GET("/:courseId/results", c.exam.ListResults)

		exams.GET("/attempts/:attemptId", c.exam.Resume)
		exams.POST("/attempts/:attemptId/answers", c.exam.SubmitAnswer)
		exams.POST("/attempts/:attemptId/finalize", c.exam.Finalize)
	}
}

func (a *App) registerCertificateRoutes(group *gin.RouterGroup, c *controllers) {
	certs := group.Group("/certificates")
	{
		certs.POST("/results/:resultId/issue", c.certificate.Issue)
		certs.GET("/:courseId", c.certificate.Get)
		certs.GET("/:courseId/download", c.certificate.Download)
		certs.PUT("/:courseId/recipient", c.certificate.BindRecipient)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Admin))
	{
		admin.PUT("/certificates/:id/name", c.certificate.CorrectName)
		admin.DELETE("/certificates/:id", c.certificate.Revoke)
		admin.POST("/courses/:courseId/question-bank", c.questionBank.Import)
		admin.POST("/attorneys", c.attorney.Import)
	}
}
