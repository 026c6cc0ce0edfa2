package models

import (
	"time"

	"github.com/lib/pq"
)

// ProviderProfile extends a provider user with business details.
// One row per provider, created lazily on first update.
type ProviderProfile struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	UserID            uint           `json:"user_id" gorm:"not null;uniqueIndex"`
	User              User           `json:"-" gorm:"foreignKey:UserID"`
	BusinessName      string         `json:"business_name" gorm:"size:255"`
	ExperienceYears   int            `json:"experience_years" gorm:"default:0"`
	HourlyRate        float64        `json:"hourly_rate" gorm:"type:decimal(10,2);default:0"`
	ServiceRadius     int            `json:"service_radius" gorm:"default:10"`
	LanguagesSpoken   pq.StringArray `json:"languages_spoken" gorm:"type:text[]"`
	Specializations   pq.StringArray `json:"specializations" gorm:"type:text[]"`
	BusinessLicense   string         `json:"business_license" gorm:"size:255"`
	InsuranceDetails  string         `json:"insurance_details" gorm:"type:text"`
	EmergencyServices bool           `json:"emergency_services" gorm:"default:false"`
	FreeConsultation  bool           `json:"free_consultation" gorm:"default:false"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "pending"
	CertificateVerified CertificateStatus = "verified"
	CertificateRejected CertificateStatus = "rejected"
)

// Certificate is provider-owned; only admins may change its
// verification_status.
type Certificate struct {
	ID                  uint              `json:"id" gorm:"primaryKey"`
	UserID              uint              `json:"user_id" gorm:"not null;index"`
	User                User              `json:"-" gorm:"foreignKey:UserID"`
	Title               string            `json:"title" gorm:"size:255;not null"`
	IssuingOrganization string            `json:"issuing_organization" gorm:"size:255;not null"`
	CertificateURL      string            `json:"certificate_url" gorm:"size:255"`
	IssueDate           *string           `json:"issue_date" gorm:"size:10"`
	ExpiryDate          *string           `json:"expiry_date" gorm:"size:10"`
	CertificateType     string            `json:"certificate_type" gorm:"size:50;default:'certification'"`
	Description         string            `json:"description" gorm:"type:text"`
	VerificationStatus  CertificateStatus `json:"verification_status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

type PortfolioItem struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null;index"`
	User            User      `json:"-" gorm:"foreignKey:UserID"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	ImageURL        string    `json:"image_url" gorm:"size:255"`
	VideoURL        string    `json:"video_url" gorm:"size:255"`
	ProjectDate     *string   `json:"project_date" gorm:"size:10"`
	ProjectLocation string    `json:"project_location" gorm:"size:255"`
	ProjectCost     float64   `json:"project_cost" gorm:"type:decimal(10,2);default:0"`
	ClientName      string    `json:"client_name" gorm:"size:255"`
	IsFeatured      bool      `json:"is_featured" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (PortfolioItem) TableName() string {
	return "portfolio_items"
}

type ServiceArea struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"not null;index"`
	AreaName          string    `json:"area_name" gorm:"size:255;not null"`
	City              string    `json:"city" gorm:"size:100"`
	State             string    `json:"state" gorm:"size:100"`
	Pincode           string    `json:"pincode" gorm:"size:20"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	ServiceCharge     float64   `json:"service_charge" gorm:"type:decimal(10,2);default:0"`
	TravelTimeMinutes int       `json:"travel_time_minutes" gorm:"default:0"`
	IsPrimary         bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ServiceArea) TableName() string {
	return "service_areas"
}

type WorkExperience struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	CompanyName  string    `json:"company_name" gorm:"size:255;not null"`
	Position     string    `json:"position" gorm:"size:255"`
	StartDate    *string   `json:"start_date" gorm:"size:10"`
	EndDate      *string   `json:"end_date" gorm:"size:10"`
	IsCurrent    bool      `json:"is_current" gorm:"default:false"`
	Description  string    `json:"description" gorm:"type:text"`
	Achievements string    `json:"achievements" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WorkExperience) TableName() string {
	return "work_experience"
}

// BusinessHour is one weekday row of a provider's public schedule.
// Updates replace the whole weekly set.
type BusinessHour struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	DayOfWeek string    `json:"day_of_week" gorm:"size:10;not null"`
	IsOpen    bool      `json:"is_open" gorm:"default:false"`
	OpenTime  *string   `json:"open_time" gorm:"size:5"`
	CloseTime *string   `json:"close_time" gorm:"size:5"`
	Is24Hours bool      `json:"is_24_hours" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessHour) TableName() string {
	return "business_hours"
}
