package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quickserve-server/config"
	"quickserve-server/models"
)

// Open connects to Postgres and runs migrations. The returned handle
// is injected into handlers; there is no package-level DB.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DB_URL is required. Set DB_URL to a valid Postgres URL")
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: gormLogger,
		// Surface unique-index violations as gorm.ErrDuplicatedKey so
		// the insert paths can fall back to fetching the winner.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Successfully connected to database")

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database migrations completed")

	return db, nil
}

// Migrate creates or updates all tables and the uniqueness indexes
// the check-then-insert paths depend on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Booking{},
		&models.Conversation{},
		&models.Message{},
		&models.UserLocation{},
		&models.Notification{},
		&models.ProviderProfile{},
		&models.Certificate{},
		&models.PortfolioItem{},
		&models.ServiceArea{},
		&models.WorkExperience{},
		&models.BusinessHour{},
		&models.AdminAction{},
		&models.UploadedFile{},
	); err != nil {
		return err
	}

	return CreateUniqueIndexes(db)
}

// CreateUniqueIndexes installs the storage-level constraints that
// make the booking slot check and the conversation get-or-create safe
// under concurrent requests. AutoMigrate cannot express partial or
// expression indexes, so these are raw DDL like the manual migration
// steps elsewhere in this package's history.
func CreateUniqueIndexes(db *gorm.DB) error {
	// One non-terminal booking per (service, date, time) slot.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_open_slot
		ON bookings (service_id, booking_date, booking_time)
		WHERE status NOT IN ('cancelled', 'completed')`).Error; err != nil {
		return err
	}

	// One conversation per counterpart pair and optional service.
	// NULL service ids collapse to 0 so two service-less conversations
	// for the same pair still collide.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_key
		ON conversations (customer_id, provider_id, COALESCE(service_id, 0))`).Error; err != nil {
		return err
	}

	return nil
}
