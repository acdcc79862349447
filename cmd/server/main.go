package main // Entry point package

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management-service/internal/cache"
	"github.com/iliyamo/user-management-service/internal/config"
	"github.com/iliyamo/user-management-service/internal/database"
	"github.com/iliyamo/user-management-service/internal/email"
	"github.com/iliyamo/user-management-service/internal/handler"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/router"
	"github.com/iliyamo/user-management-service/internal/service"
	"github.com/iliyamo/user-management-service/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environments set vars directly
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables cache and rate limiting
	if rdb == nil {
		logger.Warn("redis unavailable, user cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resets := repository.NewResetTokenRepo(db)

	audit := &queue.AMQPPublisher{}
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			logger.Error("audit consumer stopped", slog.String("err", err.Error()))
		}
	}()

	sender := email.NewSender(email.Settings{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPass,
		TLSMode:   cfg.SMTPTLSMode,
		FromName:  cfg.SMTPFromName,
		FromEmail: cfg.SMTPFromEmail,
	})

	userSvc := &service.UserService{Users: users, Audit: audit, Log: logger}
	if userCache := cache.New(rdb, config.UserCacheTTL()); userCache != nil {
		userSvc.Cache = userCache
	}
	authSvc := &service.AuthService{
		Users:          users,
		Tokens:         tokens,
		Audit:          audit,
		Log:            logger,
		AccessSecret:   cfg.AccessSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}
	onboardingSvc := &service.OnboardingService{
		Users:      userSvc,
		Repo:       users,
		Passwords:  utils.Generator{},
		Email:      sender,
		Audit:      audit,
		Log:        logger,
		LoginURL:   cfg.LoginURL,
		BcryptCost: cfg.BcryptCost,
	}
	resetSvc := &service.PasswordResetService{
		Users:      users,
		Tokens:     resets,
		Passwords:  utils.Generator{},
		Email:      sender,
		Audit:      audit,
		Log:        logger,
		TokenTTL:   time.Duration(cfg.ResetTTLMin) * time.Minute,
		ResetURL:   cfg.ResetURL,
		BcryptCost: cfg.BcryptCost,
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, resetSvc), cfg.AccessSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, onboardingSvc), cfg.AccessSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
