package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bank-rest/internal/config"
	"github.com/Dan9191/bank-rest/internal/handler"
	"github.com/Dan9191/bank-rest/internal/jobs"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/Dan9191/bank-rest/internal/service"
	"github.com/Dan9191/bank-rest/internal/utils"
	"github.com/Dan9191/bank-rest/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type store interface {
	repository.CardStore
	repository.UserStore
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogrusLevel())

	// Initialize storage
	var repo store
	if cfg.DBConn == config.MemoryDB {
		logger.Warn("Using in-memory storage, data is lost on restart")
		repo = repository.NewMemoryRepository()
	} else {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		if _, err := db.Exec(repository.Schema); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		repo = repository.NewRepository(db)
	}

	codec, err := utils.NewCardCodec(cfg.EncryptionKey, utils.Cipher(cfg.CardCipher), cfg.CardLuhn)
	if err != nil {
		logger.Fatalf("Failed to initialize card codec: %v", err)
	}

	// Notifications are optional
	var notifier service.Notifier
	var sender *email.Sender
	if cfg.MailEnabled() {
		sender = email.NewSender(cfg, logger)
		notifier = sender
	} else {
		logger.Info("SMTP_HOST is empty, email notifications are disabled")
	}

	// Initialize layers
	svc := service.NewService(repo, repo, codec, notifier, logger, []byte(cfg.JWTSecret), cfg.JWTTTL)
	if cfg.AdminEmail != "" {
		if err := svc.Users.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatalf("Failed to create admin user: %v", err)
		}
	}
	h := handler.NewHandler(svc, logger)

	if sender != nil {
		reminder := jobs.NewExpiryReminder(repo, svc.Cards, repo, sender, cfg.ExpiryReminderDays, logger)
		scheduler, err := jobs.NewScheduler(cfg.ExpiryReminderSpec, reminder, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule expiry reminders: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
