package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/contacts-api/docs" // Swagger docs
	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/avatar"
	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/contact"
	"github.com/redmonkez12/contacts-api/internal/database"
	"github.com/redmonkez12/contacts-api/internal/email"
	httpServer "github.com/redmonkez12/contacts-api/internal/http"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/profile"
	"github.com/redmonkez12/contacts-api/internal/ratelimit"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// @title           Contacts API
// @version         1.0
// @description     Contacts REST API with JWT authentication, email verification and password reset.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logging.SetFallback(logger)
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	tokenBackend, err := newTokenBackend(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	s3Client, err := avatar.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	// Repositories
	userRepo := user.NewRepository(db)
	sessionRepo := auth.NewRedisRepository(redisClient)
	passwordResetRepo := auth.NewPasswordResetRepository(db)
	contactRepo := contact.NewRepository(db)

	// Services
	authService := auth.NewService(
		userRepo,
		passwordResetRepo,
		sessionRepo,
		sessionRepo,
		auth.NewTokenManager(tokenBackend, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		email.NewService(cfg.Email, cfg.Server.BaseURL),
		avatar.GravatarURL,
		logger,
	)
	// Let queued verification and reset emails go out before exiting
	defer authService.Wait()

	profileService := profile.NewService(
		userRepo,
		avatar.NewUploader(s3Client, cfg.Storage.Bucket, cfg.Storage.PublicURL),
		authService,
	)
	contactService := contact.NewService(contactRepo)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService),
		AuthMiddleware: auth.NewMiddleware(authService),
		Profile:        profile.NewHandler(profileService),
		Contacts:       contact.NewHandler(contactService),
		Limiter:        ratelimit.NewLimiter(redisClient),
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenBackend picks the signer named by TOKEN_FORMAT
func newTokenBackend(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == "paseto" {
		return auth.NewPasetoService(cfg.PasetoKey)
	}
	return auth.NewJWTService(cfg.JWTSecret, cfg.JWTAlgorithm)
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
