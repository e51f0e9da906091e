package main

import (
	"log"
	"strings"
	"time"

	"onay-backend/internal/auth"
	"onay-backend/internal/config"
	"onay-backend/internal/database"
	"onay-backend/internal/dia"
	"onay-backend/internal/models"
	"onay-backend/internal/notification"
	"onay-backend/internal/secrets"
	"onay-backend/internal/settings"
	"onay-backend/internal/transactions"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	config.ApplyLogLevel(cfg)

	if err := secrets.Init(cfg.SecretsKey); err != nil {
		log.Fatalf("SECRETS_KEY yüklenemedi: %v", err)
	}

	database.Init(cfg)
	dia.SetDomain(cfg.DiaDomain)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	directoryCache := dia.NewDirectoryCache(10 * time.Minute)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler())

	// İşlemler
	protected.Get("/transactions", transactions.ListTransactionsHandler())
	protected.Get("/transactions/export", transactions.ExportHandler())
	protected.Post("/transactions/sync", transactions.SyncHandler())
	protected.Post("/transactions/process", transactions.ProcessHandler())
	protected.Get("/transactions/:id/detail", transactions.DetailHandler())
	protected.Get("/transactions/:id/history", transactions.HistoryHandler())

	// DIA görüntüleme yardımcıları
	protected.Get("/dia/users", transactions.DiaUsersHandler(directoryCache))
	protected.Get("/dia/approval-types", transactions.ApprovalTypesHandler(directoryCache))

	// Ayarlar
	protected.Get("/settings/dia", settings.GetDiaSettingsHandler())
	protected.Put("/settings/dia", settings.UpdateDiaSettingsHandler(directoryCache))
	protected.Get("/settings/notifications", settings.GetNotificationSettingsHandler())
	protected.Put("/settings/notifications", settings.UpdateNotificationSettingsHandler())

	// Saatlik bildirim görevi; süreç ömrü boyunca çalışır
	notification.StartScheduler(notification.NewSMTPMailer(cfg))

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
