package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskapi/internal/domain/errors"
	"taskapi/internal/domain/models"
	"taskapi/internal/server"
	"taskapi/repository/db"
	"taskapi/repository/inmemory"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(log)

	cfg := server.ReadConfig()

	var userRepo server.UserRepository
	var taskRepo server.TaskRepository

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.Warn("could not apply migrations", slog.String("error", err.Error()))
	}

	ctx := context.Background()
	storage, err := db.NewStorage(ctx, cfg.DBStr, log)
	if err != nil {
		log.Warn("database unavailable, falling back to in-memory store", slog.String("error", err.Error()))
		inmem := inmemory.NewStorage()
		userRepo = inmem
		taskRepo = inmem
	} else {
		defer storage.Close()
		userRepo = storage
		taskRepo = storage
	}

	api := server.NewTaskAPI(userRepo, taskRepo, cfg, log)
	if api == nil {
		log.Error("could not initialize API")
		os.Exit(1)
	}

	bootstrapAdmin(ctx, cfg, userRepo, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("service listening", slog.String("addr", cfg.Addr), slog.Int("port", cfg.Port))
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		}

	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	log.Info("service stopped")
}

// bootstrapAdmin creates the operator-configured admin account if the
// credentials are set and the username is still free. The public API can
// only ever create regular users; this is the sole path to an admin.
func bootstrapAdmin(ctx context.Context, cfg *server.Config, users server.UserRepository, log *slog.Logger) {
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		return
	}

	if _, err := users.GetUserByUsername(ctx, cfg.AdminUser); err == nil {
		return
	} else if !stderrors.Is(err, errors.ErrUserNotFound) {
		log.Error("admin bootstrap lookup failed", slog.String("error", err.Error()))
		return
	}

	hash, err := server.NewHasher(cfg.BcryptCost).Hash(cfg.AdminPass)
	if err != nil {
		log.Error("admin bootstrap hashing failed", slog.String("error", err.Error()))
		return
	}

	admin := models.User{
		Username:     cfg.AdminUser,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := users.CreateUser(ctx, &admin); err != nil {
		log.Error("admin bootstrap failed", slog.String("error", err.Error()))
		return
	}
	log.Info("admin account bootstrapped", slog.String("username", admin.Username))
}
