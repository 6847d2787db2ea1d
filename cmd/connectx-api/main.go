package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jadhavharshh/ConnectX-sub001/internal/handler"
	"github.com/jadhavharshh/ConnectX-sub001/internal/middleware"
	"github.com/jadhavharshh/ConnectX-sub001/internal/realtime"
	"github.com/jadhavharshh/ConnectX-sub001/internal/repository"
	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/cache"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/config"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/database"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/logger"
	corsmiddleware "github.com/jadhavharshh/ConnectX-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/jadhavharshh/ConnectX-sub001/pkg/middleware/requestid"
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT, logr)

	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)

	registry := realtime.NewRegistry(logr)
	defer registry.CloseAll()
	hub := realtime.NewHub(registry, metricsSvc, logr)
	wsHandler := realtime.NewHandler(cfg.Realtime, authSvc, registry, metricsSvc, logr)

	var courseSvc *service.CourseService
	if cacheRepo != nil {
		courseSvc = service.NewCourseService(courseRepo, cacheRepo, cfg.Cache.CourseListTTL, metricsSvc, validate, logr)
	} else {
		courseSvc = service.NewCourseService(courseRepo, nil, cfg.Cache.CourseListTTL, metricsSvc, validate, logr)
	}
	contentSvc := service.NewContentService(moduleRepo, lessonRepo, courseRepo, validate, logr)
	discussionSvc := service.NewDiscussionService(discussionRepo, courseRepo, hub, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(courseRepo, cfg.Exports.MaxRows, logr)
	}

	courseHandler := handler.NewCourseHandler(courseSvc, exportSvc)
	contentHandler := handler.NewContentHandler(contentSvc)
	discussionHandler := handler.NewDiscussionHandler(discussionSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET(cfg.Realtime.Path, wsHandler.Serve)

	api := r.Group(cfg.APIPrefix)

	// Reads resolve the viewer from the token when present and fall back
	// to an anonymous student viewer otherwise.
	reads := api.Group("", middleware.OptionalAuth(authSvc))
	reads.GET("/courses", courseHandler.List)
	reads.GET("/courses/:id", courseHandler.Get)
	reads.GET("/courses/:id/discussions", discussionHandler.ListForCourse)
	reads.GET("/courses/:id/lessons/:lessonId/discussions", discussionHandler.ListForLesson)

	// Everything that writes requires a valid identity token.
	writes := api.Group("", middleware.Auth(authSvc))
	writes.POST("/courses", courseHandler.Create)
	writes.PATCH("/courses/:id", courseHandler.Update)
	writes.DELETE("/courses/:id", courseHandler.Delete)
	writes.POST("/courses/:id/enroll", courseHandler.Enroll)
	writes.GET("/courses/:id/roster/export", courseHandler.ExportRoster)

	writes.POST("/courses/:id/modules", contentHandler.AddModule)
	writes.PATCH("/courses/:id/modules/:moduleId", contentHandler.UpdateModule)
	writes.DELETE("/courses/:id/modules/:moduleId", contentHandler.DeleteModule)
	writes.POST("/courses/:id/modules/:moduleId/lessons", contentHandler.AddLesson)
	writes.PATCH("/courses/:id/modules/:moduleId/lessons/:lessonId", contentHandler.UpdateLesson)
	writes.DELETE("/courses/:id/modules/:moduleId/lessons/:lessonId", contentHandler.DeleteLesson)

	writes.POST("/courses/:id/lessons/:lessonId/discussions", discussionHandler.Ask)
	writes.POST("/discussions/:discussionId/reply", discussionHandler.Reply)
	writes.POST("/discussions/:discussionId/close", discussionHandler.Close)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
