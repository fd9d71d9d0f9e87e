package main

import (
	"context"
	"flag"
	"log"
	"time"

	"storefront-service/config"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

func main() {
	destroy := flag.Bool("d", false, "delete all data without importing")
	flag.Parse()

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	if err := db.DestroyAll(ctx); err != nil {
		logger.Fatal("Failed to destroy data", zap.Error(err))
	}
	if *destroy {
		logger.Info("Data destroyed")
		return
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	adminID, err := importUsers(ctx, db, hasher)
	if err != nil {
		logger.Fatal("Failed to import users", zap.Error(err))
	}

	count, err := importProducts(ctx, db, adminID)
	if err != nil {
		logger.Fatal("Failed to import products", zap.Error(err))
	}

	logger.Info("Data imported",
		zap.Int("users", len(seedUsers)),
		zap.Int("products", count))
}

// importUsers creates the seed accounts and returns the admin's id.
func importUsers(ctx context.Context, db *store.Store, hasher *auth.Hasher) (string, error) {
	var adminID string
	for _, su := range seedUsers {
		hash, err := hasher.Hash(su.password)
		if err != nil {
			return "", err
		}
		u := &models.User{
			Name:         su.name,
			Email:        su.email,
			PasswordHash: hash,
			Role:         su.role,
			IsActive:     true,
		}
		if err := db.CreateUser(ctx, u); err != nil {
			return "", err
		}
		if u.Role == models.RoleAdmin && adminID == "" {
			adminID = u.ID
		}
	}
	return adminID, nil
}

func importProducts(ctx context.Context, db *store.Store, createdBy string) (int, error) {
	for i := range seedProducts {
		p := seedProducts[i]
		p.CreatedBy = createdBy
		p.IsActive = true
		p.Normalize()
		if err := db.CreateProduct(ctx, &p); err != nil {
			return i, err
		}
	}
	return len(seedProducts), nil
}
