package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wallet-service/handlers"
	"wallet-service/middleware"
	"wallet-service/models"
	"wallet-service/services"
	"wallet-service/utils"
	"wallet-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config collects everything the services need at construction time.
// Secrets and provider URLs are read here once; no business code
// reaches into the environment.
type Config struct {
	DatabaseURL           string
	AppSecretKey          string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	PaystackSecretKey     string
	PaystackWebhookSecret string
	AllowedOrigins        string
	ListenAddr            string

	R2 utils.R2Config
}

func mustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return v
}

func loadConfig() Config {
	cfg := Config{
		DatabaseURL:           mustGetenv("DATABASE_URL"),
		AppSecretKey:          mustGetenv("APP_SECRET_KEY"),
		GoogleClientID:        mustGetenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    mustGetenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:     mustGetenv("GOOGLE_REDIRECT_URI"),
		PaystackSecretKey:     mustGetenv("PAYSTACK_SECRET_KEY"),
		PaystackWebhookSecret: mustGetenv("PAYSTACK_WEBHOOK_SECRET"),
		AllowedOrigins:        os.Getenv("ALLOWED_ORIGINS"),
		ListenAddr:            os.Getenv("LISTEN_ADDR"),
		R2: utils.R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	return cfg
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	cfg := loadConfig()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // JSON and webhook payloads only
	})

	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i, origin := range originsList {
		originsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-API-Key",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.APIKey{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Transfer{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Avatar mirroring is optional; without R2 credentials users keep
	// the Google-hosted picture URL.
	var avatars *utils.R2Client
	if cfg.R2.AccountID != "" && cfg.R2.Bucket != "" {
		avatars, err = utils.NewR2Client(cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 not configured, avatar mirroring disabled")
	}

	tokenService := services.NewTokenService(cfg.AppSecretKey)
	apiKeyService := services.NewAPIKeyService(db)
	userService := services.NewUserService(db, avatars)
	googleClient := services.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	paystackClient := services.NewPaystackClient(cfg.PaystackSecretKey)
	ledgerService := services.NewLedgerService(db, paystackClient)
	settlementService := services.NewSettlementService(ledgerService, cfg.PaystackWebhookSecret)

	authn := middleware.NewAuthenticator(db, tokenService, apiKeyService)

	reconciler := workers.NewDepositReconciler(db, ledgerService, paystackClient)
	sched, err := reconciler.Start()
	if err != nil {
		log.Fatal("failed to start deposit reconciler:", err)
	}

	handlers.SetupAuthRoutes(app, userService, googleClient, tokenService)
	handlers.SetupAPIKeyRoutes(app, apiKeyService, authn)
	handlers.SetupWalletRoutes(app, ledgerService, settlementService, authn)
	handlers.SetupPaymentRoutes(app, ledgerService, authn)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Wallet Service API",
			"endpoints": fiber.Map{
				"google_auth":    "/auth/google",
				"api_keys":       "/keys/create",
				"wallet_deposit": "/wallet/deposit",
			},
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Println("✅ Deposit reconciler running (every 5m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
