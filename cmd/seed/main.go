package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	customerrepo "storefront/internal/repository/customer"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/seed"
	customersvc "storefront/internal/service/customer"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	accounts := customersvc.New(customerrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), logger)
	admin := seed.Admin{
		Email:    os.Getenv("SEED_ADMIN_EMAIL"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
		Role:     domain.Role(os.Getenv("SEED_ADMIN_ROLE")),
	}
	if admin.Email == "" {
		admin.Email = "admin@storefront.local"
	}
	if admin.Password == "" {
		admin.Password = "ChangeMe123"
	}

	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), accounts, admin); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied admin=%s", admin.Email)
}
