// Command seed creates development users directly in the store and prints a
// signed token for each, so the API can be exercised without a sign-in
// service:
//
//	JWT_SECRET=... go run ./cmd/seed alice@example.com:Alice bob@example.com:Bob
//
// Existing users (matched by email) are reused. Output is one line per user:
// "<email> <user id> <token>".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/config"
	"github.com/sakif/devconnector/internal/logger"
	"github.com/sakif/devconnector/internal/model"
	sqliteRepo "github.com/sakif/devconnector/internal/repository/sqlite"
)

var defaultUsers = []string{
	"alice@example.com:Alice",
	"bob@example.com:Bob",
}

func main() {
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	specs := flag.Args()
	if len(specs) == 0 {
		specs = defaultUsers
	}

	if err := run(context.Background(), cfg, specs, *ttl, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, specs []string, ttl time.Duration, log *slog.Logger) error {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, spec := range specs {
		email, name, _ := strings.Cut(spec, ":")
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}

		user, err := ensureUser(ctx, db, email, name)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", email, err)
		}

		token, err := tokens.Generate(user.ID, ttl)
		if err != nil {
			return err
		}

		log.Info("user ready", slog.String("email", user.Email), slog.String("id", user.ID))
		fmt.Printf("%s %s %s\n", user.Email, user.ID, token)
	}
	return nil
}

func ensureUser(ctx context.Context, db *sqliteRepo.DB, email, name string) (*model.User, error) {
	user := &model.User{Name: name, Email: email}
	err := db.CreateUser(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, err
	}
	return db.GetUserByEmail(ctx, email)
}
