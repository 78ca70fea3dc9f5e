package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/routes"
	"github.com/OKB20/spos-api/tokens"
)

func main() {
	database.Connect()
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	tokenStore := tokens.NewGormStore(database.DB)
	authority := tokens.NewAuthority(
		[]byte(secret),
		tokenStore,
		time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15))*time.Minute,
		time.Duration(envInt("REFRESH_TOKEN_EXPIRE_DAYS", 7))*24*time.Hour,
	)

	idemStore := idempotency.NewGormStore(database.DB)
	guard := idempotency.NewGuard(
		idemStore,
		time.Duration(envInt("IDEMPOTENCY_PENDING_TIMEOUT_MINUTES", 5))*time.Minute,
	)

	go sweepExpired(tokenStore, idemStore,
		time.Duration(envInt("IDEMPOTENCY_RETENTION_HOURS", 24))*time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Idempotency-Key",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        envInt("RATE_LIMIT_MAX", 300),
		Expiration: 1 * time.Minute,
	}))

	routes.Register(app, authority, guard)

	addr := getEnv("HOST", "0.0.0.0") + ":" + getEnv("PORT", "8000")
	log.Fatal(app.Listen(addr))
}

// sweepExpired garbage-collects expired refresh tokens and settled idempotency
// records past their retention window, hourly. Deleting an idempotency record
// makes its key replayable, so retention bounds duplicate detection.
func sweepExpired(tokenStore tokens.Store, idemStore idempotency.Store, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if n, err := tokenStore.DeleteExpired(ctx, time.Now()); err != nil {
			log.Printf("refresh token sweep: %v", err)
		} else if n > 0 {
			log.Printf("refresh token sweep: deleted %d record(s)", n)
		}
		if n, err := idemStore.DeleteExpired(ctx, time.Now().Add(-retention)); err != nil {
			log.Printf("idempotency sweep: %v", err)
		} else if n > 0 {
			log.Printf("idempotency sweep: deleted %d record(s)", n)
		}
		cancel()
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}
