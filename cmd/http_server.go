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
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/audit"
	auditpg "github.com/timeR3/ToolCTV/internal/audit/postgres"
	"github.com/timeR3/ToolCTV/internal/auth"
	authpg "github.com/timeR3/ToolCTV/internal/auth/postgres"
	"github.com/timeR3/ToolCTV/internal/authz"
	authzpg "github.com/timeR3/ToolCTV/internal/authz/postgres"
	"github.com/timeR3/ToolCTV/internal/category"
	categorypg "github.com/timeR3/ToolCTV/internal/category/postgres"
	"github.com/timeR3/ToolCTV/internal/tool"
	toolpg "github.com/timeR3/ToolCTV/internal/tool/postgres"
	"github.com/timeR3/ToolCTV/internal/transport/rest"
	"github.com/timeR3/ToolCTV/internal/user"
	userpg "github.com/timeR3/ToolCTV/internal/user/postgres"
	"github.com/timeR3/ToolCTV/pkg/logger"
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
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Server.Environment, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	codec, err := auth.NewSessionCodec(config.Security.SessionSecret, config.Security.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to build session codec: %w", err)
	}
	sessions := auth.NewSessionManager(codec, !config.Server.IsDevelopment())

	queryTimeout := config.Database.QueryTimeout

	auditSvc := audit.NewService(auditpg.NewRepository(gdb), lg)
	engine := authz.NewEngine(authzpg.NewRepository(gdb), auditSvc, queryTimeout, lg)

	authSvc := auth.NewService(authpg.NewRepository(gdb), sessions, config.Security.BCryptCost, queryTimeout, lg)
	userSvc := user.NewService(userpg.NewRepository(gdb), engine, auditSvc, queryTimeout, lg)
	toolSvc := tool.NewService(toolpg.NewRepository(gdb), engine, auditSvc, queryTimeout, lg)
	categorySvc := category.NewService(categorypg.NewRepository(gdb), auditSvc, queryTimeout, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:        auth.NewHandler(authSvc),
		User:        user.NewHandler(userSvc, authSvc.HashPassword),
		Tool:        tool.NewHandler(toolSvc),
		Category:    category.NewHandler(categorySvc),
		Permission:  authz.NewHandler(engine),
		AuditLog:    audit.NewHandler(auditSvc),
		Authorize:   authz.NewAuthorization(engine, lg),
		SessionGate: sessions,
	}, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

// initDB opens the pgx-backed connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the existing pool so repositories and the
// health check share one set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
