package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspay/identity"
	"github.com/campuspay/identity/mailer"
	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := identity.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	identity.SetHashCost(cfg.GetHashCost())

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := identity.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := identity.NewTokenService(cfg, nil)
	auther := identity.NewAuthenticator(repo, tokens)

	notifier := buildNotifier(cfg)
	links := identity.LinkBuilder{BaseURL: cfg.FrontendBaseURL}

	controller := identity.NewAuthController(
		identity.WithRepositoryManager(repo),
		identity.WithAuther(auther),
		identity.WithLifecycleHandlers(
			identity.NewRegisterUserHandler(repo, tokens, notifier, links),
			identity.NewVerifyEmailHandler(repo, tokens),
			identity.NewInitializePasswordResetHandler(repo, tokens, notifier, links),
			identity.NewFinalizePasswordResetHandler(repo, tokens),
		),
	)

	app := fiber.New(fiber.Config{
		AppName:      "campuspay-identity",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	controller.RegisterRoutes(app)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.NewCreateTable().
		Model((*identity.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func buildNotifier(cfg *identity.AppConfig) identity.Notifier {
	if cfg.BrevoAPIKey == "" {
		log.Println("BREVO_API_KEY not set, emails will be logged instead of sent")
		return identity.NewLogNotifier(nil)
	}

	return mailer.NewClient(
		cfg.BrevoAPIKey,
		cfg.EmailFromName,
		cfg.EmailFromEmail,
		"CampusPay E-Wallet",
	)
}
