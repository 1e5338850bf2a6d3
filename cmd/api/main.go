package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/sentriom/sentriom-api/internal/admin"
	"github.com/sentriom/sentriom-api/internal/auth"
	"github.com/sentriom/sentriom-api/internal/config"
	"github.com/sentriom/sentriom-api/internal/database"
	"github.com/sentriom/sentriom-api/internal/deposit"
	"github.com/sentriom/sentriom-api/internal/email"
	httpServer "github.com/sentriom/sentriom-api/internal/http"
	"github.com/sentriom/sentriom-api/internal/logging"
	"github.com/sentriom/sentriom-api/internal/ratelimit"
	"github.com/sentriom/sentriom-api/internal/user"
)

// @title           Sentriom API
// @version         1.0
// @description     Smart crypto savings backend with passwordless OTP authentication.

// @contact.name   API Support
// @contact.email  support@sentriom.app

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	sessionRepo := auth.NewSessionRepository(db)
	depositRepo := deposit.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	// Initialize auth service
	authService := auth.NewService(
		userRepo,
		sessionRepo,
		pasetoService,
		emailService,
		logger,
		cfg.Auth.OTPTTL,
		cfg.Auth.SessionDuration,
		cfg.Email.DeliveryMode,
	)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth:    auth.NewHandler(authService, rateLimiter, logger, cfg.Auth.ExposeDebugFields),
		User:    user.NewHandler(userRepo, logger),
		Deposit: deposit.NewHandler(depositRepo, logger),
		Admin:   admin.NewHandler(adminRepo, pasetoService, logger, cfg.Admin.Password, cfg.Auth.AdminTokenDuration),
		AuthMW:  auth.NewMiddleware(pasetoService, sessionRepo),
		AdminMW: admin.NewMiddleware(pasetoService),
	}

	// Sweep stale sessions left over from the previous run
	if err := sessionRepo.CleanupExpiredSessions(context.Background()); err != nil {
		logger.Warn("failed to clean up expired sessions", "error", err.Error())
	}

	// Initialize router
	router := httpServer.NewRouter(cfg, handlers, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
