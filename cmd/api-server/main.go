package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/skolara/timetable-api/internal/handler"
	"github.com/skolara/timetable-api/internal/repository"
	"github.com/skolara/timetable-api/internal/service"
	"github.com/skolara/timetable-api/pkg/cache"
	"github.com/skolara/timetable-api/pkg/config"
	"github.com/skolara/timetable-api/pkg/database"
	"github.com/skolara/timetable-api/pkg/jobs"
	"github.com/skolara/timetable-api/pkg/logger"
	corsmiddleware "github.com/skolara/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/skolara/timetable-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, async runs disabled", "error", err)
		redisClient = nil
	}
	runCache := cache.NewResultCache(redisClient, cfg.Scheduler.ResultCacheTTL)

	courses := repository.NewCourseRepository(db)
	teachers := repository.NewTeacherRepository(db)
	rooms := repository.NewRoomRepository(db)
	classes := repository.NewClassRepository(db)
	timetables := repository.NewTimetableRepository(db)

	metrics := service.NewMetricsService()
	validate := validator.New()

	timetableSvc := service.NewTimetableService(
		courses,
		teachers,
		rooms,
		classes,
		timetables,
		db,
		runCache,
		validate,
		logr,
		metrics,
		service.TimetableServiceConfig{
			ProposalTTL:        cfg.Scheduler.ProposalTTL,
			ResolveAttempts:    cfg.Scheduler.ResolveAttempts,
			OptimizeIterations: cfg.Scheduler.OptimizeIterations,
		},
	)

	queue := jobs.NewQueue("institution-generation", timetableSvc.HandleInstitutionJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.WorkerConcurrency,
		MaxRetries: cfg.Scheduler.WorkerRetries,
		Logger:     logr,
	})
	timetableSvc.AttachQueue(queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/timetables/generate", timetableHandler.Generate)
		api.POST("/timetables/generate-all", timetableHandler.GenerateAll)
		api.GET("/timetables/runs/:id", timetableHandler.RunStatus)
		api.POST("/timetables/save", timetableHandler.Save)
		api.GET("/timetables", timetableHandler.List)
		api.GET("/timetables/:id/rows", timetableHandler.Rows)
		api.GET("/timetables/:id/export", timetableHandler.Export)
		api.DELETE("/timetables/:id", timetableHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
