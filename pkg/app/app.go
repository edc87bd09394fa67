// Package app 提供应用程序的初始化和启动.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/jobs"
	"github.com/yeisme/streamweave/pkg/internal/router"
	"github.com/yeisme/streamweave/pkg/internal/storage"
	"github.com/yeisme/streamweave/pkg/log"
	"github.com/yeisme/streamweave/pkg/metrics"
	"github.com/yeisme/streamweave/pkg/middleware"
	"github.com/yeisme/streamweave/pkg/rule"
	"github.com/yeisme/streamweave/pkg/scheduler"
)

type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 按固定顺序完成初始化：配置、日志、指标、存储、调度器、路由.
// 任何一步失败都直接退出，带着半初始化的状态启动只会把错误推迟到运行期.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if err := rule.ValidateStruct(&config.Harvest); err != nil {
		fmt.Printf("Invalid harvest config: %v\n", rule.Errors(err))
		os.Exit(1)
	}

	log.Init()

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	dbc := manager.GetDBClient()
	if err := dbc.Migrate(); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	if config.Metrics.Enabled {
		if err := dbc.RegisterGORMMetrics(config.DB.GetDBType()); err != nil {
			log.Logger().Warn().Err(err).Msg("failed to register gorm metrics")
		}
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager, &config.Harvest); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	router.RegisterRoutes(engine.Group("/api/v1"))

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}
}

// Run 启动 HTTP 服务并在收到 SIGINT/SIGTERM 后优雅退出：
// 先停调度器，再关 HTTP 服务，最后关闭存储连接.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Logger().Info().Str("addr", srv.Addr).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	if err := a.sched.Stop(); err != nil {
		log.Logger().Warn().Err(err).Msg("scheduler stop failed")
	}

	const shutdownTimeout = 10 * time.Second

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	if err := a.manager.Close(); err != nil {
		log.Logger().Warn().Err(err).Msg("storage close failed")
	}

	log.Logger().Info().Msg("server stopped")

	return nil
}
