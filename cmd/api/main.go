package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/polyeduhub/polyeduhub-api/internal/config"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/activity"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/auth"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/badge"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/chat"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/maintenance"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/moderation"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/notification"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/points"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/settings"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/user"
	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/imaging"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/jwt"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	pkgresponse "github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting PolyEduHub API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	// Redis is optional: rate limiting and the leaderboard cache degrade without it
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
		redisClient = nil
	}
	defer database.CloseRedis(redisClient)

	store, err := newStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	app := newApp(cfg, db, redisClient, store)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.PruneInterval > 0 {
		go app.pruner.Start(ctx, cfg.PruneInterval)
		log.Info().Dur("interval", cfg.PruneInterval).Msg("Pruner scheduled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.router(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.UseS3() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Storage(ctx, storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
			S3PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.StorageLocalPath, cfg.StorageLocalURL)
}

// app holds the wired handlers
type app struct {
	db    *sqlx.DB
	redis *redis.Client
	jwt   *jwt.Service

	auth          *auth.Handler
	chat          *chat.Handler
	points        *points.Handler
	badges        *badge.Handler
	notifications *notification.Handler
	reports       *moderation.Handler
	logs          *activity.Handler
	settings      *settings.Handler
	maintenance   *maintenance.Handler
	pruner        *maintenance.Pruner
}

func newApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, store storage.Storage) *app {
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	settingsRepo := settings.NewRepository(db)
	badgeRepo := badge.NewRepository(db)
	pointsRepo := points.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	moderationRepo := moderation.NewRepository(db)

	// ---------- Services ----------
	activityService := activity.NewService(activityRepo)
	notificationService := notification.NewService(notificationRepo)
	settingsService := settings.NewService(settingsRepo, activityService)
	badgeService := badge.NewService(badgeRepo, notificationService, activityService, store, imaging.NewProcessor(imaging.DefaultIconSize))
	pointsService := points.NewService(pointsRepo, badgeService, settingsService, activityService, redisClient)
	limiter := chat.NewRateLimiter(redisClient, cfg.ChatRateLimit, cfg.ChatRateWindow)
	chatService := chat.NewService(chatRepo, pointsService, activityService, limiter)
	moderationService := moderation.NewService(moderationRepo, chatService, moderation.Deps{
		Notifier: notificationService,
		Activity: activityService,
		Admins:   userRepo,
		Points:   pointsService,
		Evidence: store,
	})
	authService := auth.NewService(userRepo, jwtService, redisClient, activityService)
	pruner := maintenance.NewPruner(db, cfg.PruneRetentionDays, activityService)

	return &app{
		db:    db,
		redis: redisClient,
		jwt:   jwtService,

		auth:          auth.NewHandler(authService),
		chat:          chat.NewHandler(chatService),
		points:        points.NewHandler(pointsService),
		badges:        badge.NewHandler(badgeService),
		notifications: notification.NewHandler(notificationService),
		reports:       moderation.NewHandler(moderationService),
		logs:          activity.NewHandler(activityService),
		settings:      settings.NewHandler(settingsService),
		maintenance:   maintenance.NewHandler(pruner),
		pruner:        pruner,
	}
}

func (a *app) router(cfg *config.Config) http.Handler {
	authMiddleware := middleware.Auth(a.jwt)
	adminMiddleware := middleware.RequireAdmin()

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if a.db == nil || a.db.PingContext(ctx) != nil {
			dbStatus = "down"
		}
		pkgresponse.OK(w, map[string]string{
			"status":   "ok",
			"database": dbStatus,
			"redis":    database.RedisStatus(ctx, a.redis),
		})
	})

	if !cfg.UseS3() {
		files := http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.StorageLocalPath)))
		r.Handle("/files/*", files)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/auth", a.auth.Routes(authMiddleware))
		r.Mount("/chat", a.chat.Routes(authMiddleware))
		r.Mount("/points", a.points.Routes(authMiddleware))
		r.Mount("/badges", a.badges.Routes(authMiddleware))
		r.Mount("/notifications", a.notifications.Routes(authMiddleware))
		r.Mount("/reports", a.reports.Routes(authMiddleware))

		r.Route("/admin", func(r chi.Router) {
			r.Mount("/logs", a.logs.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/settings", a.settings.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/points", a.points.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/badges", a.badges.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/reports", a.reports.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/maintenance", a.maintenance.AdminRoutes(authMiddleware, adminMiddleware))
		})
	})

	return r
}
