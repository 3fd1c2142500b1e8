package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/auth"
	"server/internal/domain"
	"server/internal/infra"
)

func main() {
	var (
		nameFlag     string
		emailFlag    string
		passwordFlag string
	)

	flag.StringVar(&nameFlag, "name", "", "display name for the admin account")
	flag.StringVar(&emailFlag, "email", "", "email for the admin account")
	flag.StringVar(&passwordFlag, "password", "", "initial password (change it after first login)")
	flag.Parse()

	name := strings.TrimSpace(nameFlag)
	email := strings.TrimSpace(emailFlag)
	if name == "" || email == "" || passwordFlag == "" {
		exitWithError(errors.New("-name, -email and -password are required"))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer dbpool.Close()

	users := repo.NewUserRepository(infra.NewSQLRunner(dbpool, zerolog.Nop()))
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	svc := auth.NewService(users, tokens, zerolog.Nop())

	user, err := svc.Register(ctx, name, email, passwordFlag, domain.UserRoleAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			exitWithError(fmt.Errorf("an account already exists for %s", email))
		}
		exitWithError(fmt.Errorf("create admin: %w", err))
	}

	fmt.Printf("Admin account created: %s (%s)\n", user.Email, user.ID)
	fmt.Println("Change the password after the first login.")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
