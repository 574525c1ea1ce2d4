package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/badges"
	appControllers "github.com/parivartan/hub/internal/app/controllers"
	appMigrations "github.com/parivartan/hub/internal/app/migrations"
	"github.com/parivartan/hub/internal/app/notifications"
	appRepos "github.com/parivartan/hub/internal/app/repositories"
	appRoutes "github.com/parivartan/hub/internal/app/routes"
	appServices "github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/config"
	"github.com/parivartan/hub/internal/db"
	appMiddleware "github.com/parivartan/hub/internal/middleware"
	pkgAuth "github.com/parivartan/hub/internal/pkg/auth"
	"github.com/parivartan/hub/internal/pkg/email"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/parivartan/hub/internal/pkg/genai"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/logger"
	"github.com/parivartan/hub/internal/pkg/realtime"
	"github.com/parivartan/hub/internal/pkg/revocation"
	"github.com/parivartan/hub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos         *appRepos.Repositories
	Redis         *redis.Client // nil when Redis is not configured
	Feed          realtime.Feed
	DenyList      revocation.DenyList
	Realtime      *realtime.Hub
	Notifications *notifications.Hub
	Badges        *badges.Engine
	Sessions      *session.Manager
	AuthService   *appAuth.Service
	JWTService    *pkgAuth.JWTService
	Bridge        *genai.Bridge
	FileStorage   *filestorage.LocalStorage
	Services      appServices.Services
	Controllers   appRoutes.Controllers
	Middleware    *appMiddleware.AuthMiddleware
	Logger        zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "pretty" || strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
		File: logger.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		},
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// A failed migration is logged and startup continues: the session loader
// then reports the missing tables to clients as SETUP_REQUIRED.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Server.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Warn().Str("path", migrationsDir).Msg("Migrations directory not found, skipping migrations")
		return dbPool, nil
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
	} else {
		lgr.Info().Msg("Database migrations successfully applied.")
	}

	return dbPool, nil
}

// SetupRedis connects to Redis. It returns nil when no address is
// configured or the server does not answer; callers fall back to in-process
// implementations.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		lgr.Info().Msg("Redis not configured, using in-process chat feed and deny-list")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, using in-process chat feed and deny-list")
		_ = client.Close()
		return nil
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established.")
	return client
}

func loaderSources(repos *appRepos.Repositories) store.Sources {
	return store.Sources{
		Users:         repos.UserRepository.List,
		Posts:         repos.PostRepository.List,
		Comments:      repos.PostRepository.ListComments,
		Reactions:     repos.PostRepository.ListReactions,
		Announcements: repos.AnnouncementRepository.List,
		Achievements:  repos.AnnouncementRepository.ListAchievements,
		Events:        repos.EventRepository.List,
		Attendees:     repos.EventRepository.ListAttendees,
		Campaigns:     repos.CampaignRepository.List,
		Donors:        repos.CampaignRepository.ListDonors,
		Chat:          repos.ChatRepository.List,
		Tasks:         repos.TaskRepository.List,
		Badges:        repos.BadgeRepository.List,
		Slideshow:     repos.HomepageRepository.ListSlides,
		Popup:         repos.HomepageRepository.GetPopup,
	}
}

// BuildDependencies initializes repositories, the sync layer, services and
// controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, rdb *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Redis: rdb}
	deps.Repos = appRepos.NewRepositories(dbPool)

	if err := seed.EnsureSuperAdmin(ctx, deps.Repos.UserRepository, cfg, lgr); err != nil {
		// Not fatal: the database may still be waiting for its migrations.
		lgr.Error().Err(err).Msg("Failed to seed super admin, proceeding anyway...")
	}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.Server.PublicBaseURL, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	if rdb != nil {
		deps.Feed = realtime.NewRedisFeed(rdb, cfg.Redis.ChatChannel, lgr)
		deps.DenyList = revocation.NewRedisDenyList(rdb)
	} else {
		deps.Feed = realtime.NewLocalFeed()
		deps.DenyList = revocation.NewMemoryDenyList()
	}

	deps.Realtime = realtime.NewHub(lgr)

	var notificationRepo notifications.Repository
	if cfg.Sync.PersistNotifications {
		notificationRepo = deps.Repos.NotificationRepository
	}
	deps.Notifications = notifications.NewHub(notificationRepo, deps.Realtime, lgr)
	deps.Badges = badges.NewEngine(deps.Repos.BadgeRepository, deps.Notifications, lgr)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	mailer := email.NewSMTPMailer(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.SMTP.AppURL,
	}, lgr)

	deps.AuthService = appAuth.NewService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		deps.DenyList,
		mailer,
		lgr,
	)
	deps.AuthService.SetGuestAccess(cfg.JWT.GuestAccess)

	loader := store.NewLoader(loaderSources(deps.Repos), store.ParsePolicy(cfg.Sync.LoadPolicy), lgr)
	deps.Sessions = session.NewManager(loader, deps.Notifications, deps.Realtime, session.Config{
		OverdueInterval: helpers.ParseDuration(cfg.Sync.OverdueInterval, time.Minute),
		OverdueWindow:   helpers.ParseDuration(cfg.Sync.OverdueWindow, 24*time.Hour),
		IdleTimeout:     helpers.ParseDuration(cfg.Sync.SessionIdleTimeout, 2*time.Hour),
	}, lgr)

	var generator genai.Generator
	if cfg.AI.APIKey != "" {
		gemini, err := genai.NewGeminiGenerator(ctx, genai.GeminiConfig{
			APIKey:         cfg.AI.APIKey,
			TextModel:      cfg.AI.TextModel,
			ImageModel:     cfg.AI.ImageModel,
			ImageEditModel: cfg.AI.ImageEditModel,
			Timeout:        helpers.ParseDuration(cfg.AI.Timeout, time.Minute),
		})
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to create AI client, AI features disabled")
		} else {
			generator = gemini
		}
	} else {
		lgr.Info().Msg("AI API key not configured, AI features disabled")
	}
	deps.Bridge = genai.NewBridge(generator, deps.FileStorage, lgr)

	shared := appServices.Deps{
		Badges:    deps.Badges,
		Images:    deps.FileStorage,
		Moderator: deps.Bridge,
		Logger:    lgr,
	}
	deps.Services = appServices.Services{
		Posts:         appServices.NewPostService(deps.Repos.PostRepository, shared),
		Announcements: appServices.NewAnnouncementService(deps.Repos.AnnouncementRepository, shared),
		Events:        appServices.NewEventService(deps.Repos.EventRepository, shared),
		Campaigns:     appServices.NewCampaignService(deps.Repos.CampaignRepository, shared),
		Chat:          appServices.NewChatService(deps.Repos.ChatRepository, deps.Feed, shared),
		Tasks:         appServices.NewTaskService(deps.Repos.TaskRepository, shared),
		Homepage:      appServices.NewHomepageService(deps.Repos.HomepageRepository, shared),
		Members:       appServices.NewMemberService(deps.Repos.UserRepository, deps.AuthService, deps.Sessions, shared),
		AI:            appServices.NewAIService(deps.Bridge, shared),
	}

	deps.Middleware = appMiddleware.NewAuthMiddleware(
		deps.JWTService,
		deps.DenyList,
		deps.Repos.UserRepository,
		deps.Sessions,
		lgr,
	)

	deps.Controllers = appRoutes.Controllers{
		Auth:          appControllers.NewAuthController(deps.AuthService, deps.FileStorage, lgr),
		Sync:          appControllers.NewSyncController(deps.Sessions, deps.Notifications, lgr),
		Posts:         appControllers.NewPostController(deps.Services.Posts),
		Announcements: appControllers.NewAnnouncementController(deps.Services.Announcements),
		Events:        appControllers.NewEventController(deps.Services.Events),
		Campaigns:     appControllers.NewCampaignController(deps.Services.Campaigns),
		Chat:          appControllers.NewChatController(deps.Services.Chat, deps.Realtime, realtime.Upgrader(cfg.Server.CORSOrigins), lgr),
		Tasks:         appControllers.NewTaskController(deps.Services.Tasks),
		Homepage:      appControllers.NewHomepageController(deps.Services.Homepage),
		Members:       appControllers.NewMemberController(deps.Services.Members),
		AI:            appControllers.NewAIController(deps.Services.AI),
	}

	return deps, nil
}

// Start launches the background loops: websocket fan-out and the session
// manager fed by auth events and the chat feed. They stop when ctx is done.
func (d *Dependencies) Start(ctx context.Context) {
	go d.Realtime.Run(ctx)
	go func() {
		if err := d.Sessions.Run(ctx, d.AuthService.Events(), d.Feed); err != nil && ctx.Err() == nil {
			d.Logger.Error().Err(err).Msg("Session manager stopped")
		}
	}()
}

// Close releases the connections owned by the dependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterBindingRules()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(appMiddleware.SecurityHeaders(!cfg.IsProduction(), lgr))
	router.Use(appMiddleware.BodyLimit(cfg.Server.MaxBodyBytes))
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	appRoutes.SetupRouter(router, deps.Controllers, deps.Middleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
