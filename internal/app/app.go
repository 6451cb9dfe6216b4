package app

import (
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/controller"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/service"
	"courtcert_backend/pkg/configwatcher"
	"courtcert_backend/pkg/database"
	"courtcert_backend/pkg/logger"
	"courtcert_backend/pkg/monitoring"
	"courtcert_backend/pkg/security"
	"courtcert_backend/pkg/tracing"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 每次补发签发事件的最大数量
const republishBatch = 100

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	cron            *cron.Cron
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	learner      *repository.LearnerRepository
	questionBank *repository.QuestionBankRepository
	attempt      *repository.AttemptRepository
	result       *repository.ExamResultRepository
	certificate  *repository.CertificateRepository
	attorney     *repository.AttorneyRepository
}

type services struct {
	storage      *service.StorageService
	events       service.EventPublisher
	selector     *service.QuestionSelector
	questionBank *service.QuestionBankService
	grading      *service.GradingService
	certificate  *service.CertificateService
	session      *service.ExamSessionService
	attorney     *service.AttorneyService
}

type controllers struct {
	exam         *controller.ExamController
	certificate  *controller.CertificateController
	attorney     *controller.AttorneyController
	questionBank *controller.QuestionBankController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	attempts := repository.NewAttemptRepository(db, rdb)
	return &repositories{
		learner:      repository.NewLearnerRepository(db),
		questionBank: repository.NewQuestionBankRepository(db),
		attempt:      attempts,
		result:       repository.NewExamResultRepository(db, attempts),
		certificate:  repository.NewCertificateRepository(db),
		attorney:     repository.NewAttorneyRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.events = service.NewEventPublisher(&cfg.Notification, rdb)
	s.selector = service.NewQuestionSelector(repos.questionBank, cfg.Exam.QuestionCount)
	s.questionBank = service.NewQuestionBankService(repos.questionBank)
	s.grading = service.NewGradingService(repos.result, cfg.Exam.PassThreshold)
	s.certificate = service.NewCertificateService(
		repos.certificate,
		repos.result,
		repos.attorney,
		repos.learner,
		s.storage,
		s.events,
		cfg.Certificate,
	)
	s.session = service.NewExamSessionService(
		repos.learner,
		repos.attempt,
		s.selector,
		s.grading,
		s.certificate,
	)
	s.attorney = service.NewAttorneyService(repos.attorney, cfg.Attorney)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		exam:         controller.NewExamController(s.session),
		certificate:  controller.NewCertificateController(s.certificate),
		attorney:     controller.NewAttorneyController(s.attorney),
		questionBank: controller.NewQuestionBankController(s.questionBank),
		health:       controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时补发发布失败的证书签发事件
func (a *App) startBackgroundTasks(s *services) {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.Config.Certificate.RepublishSpec, func() {
		ctx, cancel := context.WithTimeout(a.ctx, time.Minute)
		defer cancel()
		sent, err := s.certificate.RepublishPending(ctx, republishBatch)
		if err != nil {
			logger.Log.Error("republish certificate events failed", zap.Error(err))
			return
		}
		if sent > 0 {
			logger.Log.Info("republished certificate events", zap.Int("count", sent))
		}
	})
	if err != nil {
		logger.Log.Fatal("Invalid certificate republish schedule",
			zap.String("spec", a.Config.Certificate.RepublishSpec), zap.Error(err))
	}
	a.cron.Start()

	if a.ConfigPath != "" {
		go func() {
			if err := configwatcher.WatchConfig(a.ctx, a.ConfigPath, a.reloadConfig); err != nil {
				logger.Log.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config, configPath string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:     cfg,
		ConfigPath: configPath,
		DB:         db,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("courtcert", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(logger.ApplyConfig)
	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.cancel()
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
