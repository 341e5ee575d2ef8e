package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/stockmaster/config"
	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
	mongoinfra "github.com/oksasatya/stockmaster/internal/infrastructure/mongo"
	pginfra "github.com/oksasatya/stockmaster/internal/infrastructure/postgres"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

// seed creates a verified demo account in the configured store.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo repository.AccountRepository
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		repo = pginfra.NewAccountRepository(pool)
	default:
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mrepo := mongoinfra.NewAccountRepository(client.Database(cfg.MongoDatabase), cfg.MongoAccountsCollection)
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("failed to ensure indexes: %v", err)
		}
		repo = mrepo
	}

	loginID := "demouser"
	email := "demo@stockmaster.local"
	password := "Demo@12345"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	a := &entity.Account{LoginID: loginID, Email: email, PasswordHash: hash, IsVerified: true}
	err = repo.Create(ctx, a)
	switch {
	case repository.HasCode(err, repository.CodeDuplicateLoginID), repository.HasCode(err, repository.CodeDuplicateEmail):
		fmt.Printf("demo account already present: loginId=%s email=%s\n", loginID, email)
		return
	case err != nil:
		log.Fatalf("failed to seed account: %v", err)
	}
	fmt.Printf("seeded account: id=%s loginId=%s email=%s password=%s\n", a.ID, loginID, email, password)
}
