package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/auth"
	authPostgres "github.com/frahmantamala/document-workspace/internal/auth/postgres"
	"github.com/frahmantamala/document-workspace/internal/core/events"
	"github.com/frahmantamala/document-workspace/internal/department"
	departmentPostgres "github.com/frahmantamala/document-workspace/internal/department/postgres"
	"github.com/frahmantamala/document-workspace/internal/folder"
	folderPostgres "github.com/frahmantamala/document-workspace/internal/folder/postgres"
	"github.com/frahmantamala/document-workspace/internal/transport/middleware"
	"github.com/frahmantamala/document-workspace/internal/transport/rest"
	"github.com/frahmantamala/document-workspace/internal/transport/swagger"
	"github.com/frahmantamala/document-workspace/internal/user"
	userPostgres "github.com/frahmantamala/document-workspace/internal/user/postgres"
	"github.com/frahmantamala/document-workspace/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Redis    *redis.Client
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger

	AuthHandler       *auth.Handler
	AuthService       *auth.Service
	UserHandler       *user.Handler
	FolderHandler     *folder.Handler
	DepartmentHandler *department.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
		if err := deps.Redis.Close(); err != nil {
			deps.Logger.Error("redis close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	deps.Router.Use(middleware.RequestID)
	deps.Router.Use(middleware.LoggingMiddleware(deps.Logger))

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.Redis,
		deps.Config.Server.AllowedOrigins,
		deps.AuthHandler,
		deps.AuthService,
		deps.UserHandler,
		deps.FolderHandler,
		deps.DepartmentHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	redisClient, err := auth.NewRedisClient(config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	sessionStore := auth.NewSessionStore(redisClient, lg)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, sessionStore, eventBus, config.Security.BCryptCost, config.Security.ResetTokenDuration, lg)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	folderRepo := folderPostgres.NewFolderRepository(gormDB)
	permRepo := folderPostgres.NewPermissionRepository(gormDB)
	resolver := folder.NewResolver(folderRepo, permRepo, lg)
	folderService := folder.NewService(lg, folderRepo, permRepo, resolver, eventBus)
	folderHandler := folder.NewHandler(folderService)

	departmentRepo := departmentPostgres.NewDepartmentRepository(gormDB)
	departmentService := department.NewService(departmentRepo, lg)
	departmentHandler := department.NewHandler(departmentService)

	registerEventHandlers(eventBus, lg)

	return &Dependencies{
		Config:            config,
		DB:                db,
		GormDB:            gormDB,
		Redis:             redisClient,
		Router:            chi.NewRouter(),
		EventBus:          eventBus,
		Logger:            lg,
		AuthHandler:       authHandler,
		AuthService:       authService,
		UserHandler:       userHandler,
		FolderHandler:     folderHandler,
		DepartmentHandler: departmentHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
