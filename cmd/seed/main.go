package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/sitestock-backend/internal/users"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/angelmondragon/sitestock-backend/pkg/migrate"
	"github.com/angelmondragon/sitestock-backend/pkg/security"
)

const tempPasswordLength = 16

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	email := flag.String("email", "rachel@remix.run", "admin email to (re)create")
	password := flag.String("password", "racheliscool", "admin password; empty generates one")
	rentableName := flag.String("rentable", "Andaime", "sample rentable name")
	rentableCount := flag.Int("count", 615, "sample rentable stock")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a production database")
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "email": *email})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	requireResource(logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	if *password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		requireResource(logg, "temp password", err)
		*password = generated
		fmt.Printf("generated admin password for %s: %s\n", *email, generated)
	}

	hash, err := security.HashPassword(*password, cfg.Password)
	requireResource(logg, "password hash", err)

	userRepo := users.NewRepository(dbClient.DB())
	requireResource(logg, "admin cleanup", userRepo.DeleteByEmail(ctx, *email))
	admin, err := userRepo.Create(ctx, users.CreateUserDTO{
		Email:        *email,
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
	})
	requireResource(logg, "admin user", err)

	rentable := models.Rentable{}
	err = dbClient.DB().WithContext(ctx).
		Where(models.Rentable{Name: *rentableName}).
		Attrs(models.Rentable{Count: *rentableCount}).
		FirstOrCreate(&rentable).Error
	requireResource(logg, "sample rentable", err)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"admin_id":    admin.ID.String(),
		"rentable_id": rentable.ID.String(),
	}), "database has been seeded")
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("seed step failed: %s", resource), err)
	os.Exit(1)
}
