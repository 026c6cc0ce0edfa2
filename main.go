package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"quickserve-server/config"
	"quickserve-server/database"
	"quickserve-server/jobs"
	"quickserve-server/middleware"
	"quickserve-server/routes"
	"quickserve-server/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected and migrated")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := database.SeedDemoData(db); err != nil {
			log.Printf("Demo data seeding failed: %v", err)
		}
	}

	mailer := utils.NewMailer(cfg.SMTP)

	scheduler := jobs.NewScheduler(db, mailer)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start background jobs: %v", err)
	}
	defer scheduler.Stop()

	router := setupRouter(db, cfg)

	log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())

	limiter := middleware.NewRateLimiter()
	go limiter.CleanupLoop(time.Hour)
	router.Use(limiter.RateLimit())

	// The API selects operations by method + action, so an unmatched
	// method on a known path is 405, not 404.
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		utils.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	})

	router.GET("/health", func(c *gin.Context) {
		utils.Success(c, "", gin.H{"status": "ok"})
	})

	router.Static("/uploads", cfg.Uploads.Dir)

	api := router.Group("/api")

	auth := api.Group("/auth", middleware.OptionalAuthenticate(db, cfg))
	routes.RegisterAuthRoutes(auth, routes.NewAuthHandler(db, cfg))

	services := api.Group("/services", middleware.OptionalAuthenticate(db, cfg))
	routes.RegisterServiceRoutes(services, routes.NewServiceHandler(db))

	bookings := api.Group("/bookings", middleware.Authenticate(db, cfg))
	routes.RegisterBookingRoutes(bookings, routes.NewBookingHandler(db))

	chat := api.Group("/chat", middleware.Authenticate(db, cfg))
	routes.RegisterChatRoutes(chat, routes.NewChatHandler(db, cfg))

	admin := api.Group("/admin", middleware.Authenticate(db, cfg), middleware.RequireAdmin())
	routes.RegisterAdminRoutes(admin, routes.NewAdminHandler(db))

	profiles := api.Group("/profiles", middleware.Authenticate(db, cfg))
	routes.RegisterProfileRoutes(profiles, routes.NewProfileHandler(db))

	files := api.Group("/files", middleware.Authenticate(db, cfg))
	routes.RegisterFileRoutes(files, routes.NewFileHandler(db, cfg))

	return router
}
