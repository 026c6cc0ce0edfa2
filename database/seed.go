package database

import (
	"log"
	"time"

	"gorm.io/gorm"

	"quickserve-server/models"
	"quickserve-server/utils"
)

// SeedDemoData inserts a demo admin, provider and customer plus a few
// listings so a fresh install has something to browse. It is a no-op
// when any user already exists.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("demo1234")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:            "admin@quickserve.local",
		PasswordHash:     hash,
		FullName:         "System Admin",
		Role:             models.RoleAdmin,
		IsActive:         true,
		IsVerified:       true,
		ProfileCompleted: true,
	}
	provider := models.User{
		Email:            "provider@quickserve.local",
		PasswordHash:     hash,
		FullName:         "Priya Sharma",
		Phone:            "+911234567890",
		Role:             models.RoleProvider,
		IsActive:         true,
		ProfileCompleted: true,
		Rating:           4.5,
	}
	customer := models.User{
		Email:        "customer@quickserve.local",
		PasswordHash: hash,
		FullName:     "Rahul Verma",
		Phone:        "+919876543210",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}

	for _, u := range []*models.User{&admin, &provider, &customer} {
		if err := db.Create(u).Error; err != nil {
			return err
		}
	}

	services := []models.Service{
		{
			ProviderID:   provider.ID,
			Title:        "Home Plumbing Repair",
			Description:  "Leak fixes, tap and pipe replacement, bathroom fittings.",
			Category:     "Plumbing",
			Price:        499,
			Location:     "Mumbai",
			Availability: models.DefaultAvailability(),
			WorkingHours: models.DefaultWorkingHours(),
			IsActive:     true,
		},
		{
			ProviderID:   provider.ID,
			Title:        "House Deep Cleaning",
			Description:  "Full-home deep clean including kitchen and bathrooms.",
			Category:     "Cleaning",
			Price:        1499,
			Location:     "Mumbai",
			Availability: models.DefaultAvailability(),
			WorkingHours: models.WorkingHours{Start: "08:00", End: "20:00"},
			IsActive:     true,
		},
	}
	for i := range services {
		if err := db.Create(&services[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded demo data at %s", time.Now().Format(time.RFC3339))
	return nil
}
