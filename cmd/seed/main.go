package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"subscription-billing/internal/config"
	"subscription-billing/internal/domain"
	pg "subscription-billing/internal/infra/db/postgres"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/usecase"
)

// Seeds a demo account for local testing of the subscription flow.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	email := flag.String("email", "demo@example.com", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := logging.New(cfg.Log, true)
	userUC := usecase.NewUserUseCase(pg.NewUserRepo(pool), logger)

	user, err := userUC.Register(ctx, *email, "Demo User", *password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			fmt.Printf("demo user %s already present. No changes.\n", *email)
			return
		}
		log.Fatalf("seed user: %v", err)
	}
	fmt.Printf("seeded demo user %s (id=%s)\n", user.Email, user.ID)
}
