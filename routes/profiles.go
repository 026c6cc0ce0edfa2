package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

var businessHourDays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// ProfileHandler serves the provider profile surface under
// /api/profiles: the extended profile row, portfolio, certificates,
// business hours, service areas and work experience.
type ProfileHandler struct {
	db *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

func RegisterProfileRoutes(rg *gin.RouterGroup, h *ProfileHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.PUT("", h.handlePut)
	rg.DELETE("", h.handleDelete)
}

func (h *ProfileHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "profile", "":
		h.getProfile(c)
	case "portfolio":
		h.getPortfolio(c)
	case "certificates":
		h.getCertificates(c)
	case "business-hours":
		h.getBusinessHours(c)
	case "service-areas":
		h.getServiceAreas(c)
	case "work-experience":
		h.getWorkExperience(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ProfileHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "portfolio":
		h.addPortfolioItem(c)
	case "certificates":
		h.addCertificate(c)
	case "service-areas":
		h.addServiceArea(c)
	case "work-experience":
		h.addWorkExperience(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ProfileHandler) handlePut(c *gin.Context) {
	switch c.Query("action") {
	case "profile", "":
		h.updateProviderProfile(c)
	case "portfolio":
		h.updatePortfolioItem(c)
	case "business-hours":
		h.updateBusinessHours(c)
	case "service-areas":
		h.updateServiceArea(c)
	case "work-experience":
		h.updateWorkExperience(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ProfileHandler) handleDelete(c *gin.Context) {
	switch c.Query("action") {
	case "portfolio":
		h.deletePortfolioItem(c)
	case "certificates":
		h.deleteCertificate(c)
	case "service-areas":
		h.deleteServiceArea(c)
	case "work-experience":
		h.deleteWorkExperience(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

// profileOwner resolves whose profile is being read: ?user_id= for
// viewing someone else, the caller otherwise.
func (h *ProfileHandler) profileOwner(c *gin.Context) (uint, bool) {
	user := middleware.CurrentUser(c)

	if idParam := c.Query("user_id"); idParam != "" {
		id, err := strconv.Atoi(idParam)
		if err != nil || id < 1 {
			utils.BadRequest(c, "Invalid user ID")
			return 0, false
		}
		return uint(id), true
	}

	return user.ID, true
}

// getProfile assembles the public profile view: the user row, the
// provider extension when one exists, and summary counts.
func (h *ProfileHandler) getProfile(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, ownerID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	response := gin.H{"user": user}

	if user.IsProvider() {
		var profile models.ProviderProfile
		if err := h.db.Where("user_id = ?", ownerID).First(&profile).Error; err == nil {
			response["provider_profile"] = profile
		}

		var counts struct {
			Services     int64 `json:"services"`
			Portfolio    int64 `json:"portfolio"`
			Certificates int64 `json:"certificates"`
			Completed    int64 `json:"completed_bookings"`
		}
		h.db.Model(&models.Service{}).Where("provider_id = ? AND is_active = ?", ownerID, true).Count(&counts.Services)
		h.db.Model(&models.PortfolioItem{}).Where("user_id = ?", ownerID).Count(&counts.Portfolio)
		h.db.Model(&models.Certificate{}).Where("user_id = ? AND verification_status = ?", ownerID, models.CertificateVerified).Count(&counts.Certificates)
		h.db.Model(&models.Booking{}).Where("provider_id = ? AND status = ?", ownerID, models.BookingCompleted).Count(&counts.Completed)
		response["counts"] = counts
	}

	utils.Success(c, "", response)
}

type providerProfileRequest struct {
	BusinessName      *string  `json:"business_name"`
	ExperienceYears   *int     `json:"experience_years"`
	HourlyRate        *float64 `json:"hourly_rate"`
	ServiceRadius     *int     `json:"service_radius"`
	LanguagesSpoken   []string `json:"languages_spoken"`
	Specializations   []string `json:"specializations"`
	BusinessLicense   *string  `json:"business_license"`
	InsuranceDetails  *string  `json:"insurance_details"`
	EmergencyServices *bool    `json:"emergency_services"`
	FreeConsultation  *bool    `json:"free_consultation"`
}

// updateProviderProfile upserts the provider extension row, created
// lazily on first update.
func (h *ProfileHandler) updateProviderProfile(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req providerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	var profile models.ProviderProfile
	err := h.db.Where("user_id = ?", user.ID).First(&profile).Error
	if err != nil {
		profile = models.ProviderProfile{UserID: user.ID}
	}

	if req.BusinessName != nil {
		profile.BusinessName = *req.BusinessName
	}
	if req.ExperienceYears != nil {
		profile.ExperienceYears = *req.ExperienceYears
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = *req.HourlyRate
	}
	if req.ServiceRadius != nil {
		profile.ServiceRadius = *req.ServiceRadius
	}
	if req.LanguagesSpoken != nil {
		profile.LanguagesSpoken = pq.StringArray(req.LanguagesSpoken)
	}
	if req.Specializations != nil {
		profile.Specializations = pq.StringArray(req.Specializations)
	}
	if req.BusinessLicense != nil {
		profile.BusinessLicense = *req.BusinessLicense
	}
	if req.InsuranceDetails != nil {
		profile.InsuranceDetails = *req.InsuranceDetails
	}
	if req.EmergencyServices != nil {
		profile.EmergencyServices = *req.EmergencyServices
	}
	if req.FreeConsultation != nil {
		profile.FreeConsultation = *req.FreeConsultation
	}

	if err := h.db.Save(&profile).Error; err != nil {
		utils.ServerError(c, "Failed to update profile")
		return
	}

	utils.Success(c, "Profile updated successfully", gin.H{"provider_profile": profile})
}

func (h *ProfileHandler) getPortfolio(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	var items []models.PortfolioItem
	err := h.db.Where("user_id = ?", ownerID).
		Order("is_featured DESC, created_at DESC").
		Find(&items).Error
	if err != nil {
		utils.ServerError(c, "Failed to load portfolio")
		return
	}

	utils.Success(c, "", gin.H{"portfolio": items})
}

type portfolioItemRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"image_url"`
	VideoURL        string   `json:"video_url"`
	ProjectDate     *string  `json:"project_date"`
	ProjectLocation string   `json:"project_location"`
	ProjectCost     *float64 `json:"project_cost"`
	ClientName      string   `json:"client_name"`
	IsFeatured      *bool    `json:"is_featured"`
}

func (h *ProfileHandler) addPortfolioItem(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req portfolioItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		utils.BadRequest(c, "Title is required")
		return
	}

	item := models.PortfolioItem{
		UserID:          user.ID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		VideoURL:        req.VideoURL,
		ProjectDate:     req.ProjectDate,
		ProjectLocation: req.ProjectLocation,
		ClientName:      req.ClientName,
	}
	if req.ProjectCost != nil {
		item.ProjectCost = *req.ProjectCost
	}
	if req.IsFeatured != nil {
		item.IsFeatured = *req.IsFeatured
	}

	if err := h.db.Create(&item).Error; err != nil {
		utils.ServerError(c, "Failed to add portfolio item")
		return
	}

	utils.Created(c, "Portfolio item added", gin.H{"item": item})
}

func (h *ProfileHandler) updatePortfolioItem(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var item models.PortfolioItem
	if !h.loadOwned(c, user.ID, &item, "Portfolio item not found") {
		return
	}

	var req portfolioItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		item.Title = title
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.ImageURL != "" {
		item.ImageURL = req.ImageURL
	}
	if req.VideoURL != "" {
		item.VideoURL = req.VideoURL
	}
	if req.ProjectDate != nil {
		item.ProjectDate = req.ProjectDate
	}
	if req.ProjectLocation != "" {
		item.ProjectLocation = req.ProjectLocation
	}
	if req.ProjectCost != nil {
		item.ProjectCost = *req.ProjectCost
	}
	if req.ClientName != "" {
		item.ClientName = req.ClientName
	}
	if req.IsFeatured != nil {
		item.IsFeatured = *req.IsFeatured
	}

	if err := h.db.Save(&item).Error; err != nil {
		utils.ServerError(c, "Failed to update portfolio item")
		return
	}

	utils.Success(c, "Portfolio item updated", gin.H{"item": item})
}

func (h *ProfileHandler) deletePortfolioItem(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var item models.PortfolioItem
	if !h.loadOwned(c, user.ID, &item, "Portfolio item not found") {
		return
	}

	if err := h.db.Delete(&item).Error; err != nil {
		utils.ServerError(c, "Failed to delete portfolio item")
		return
	}

	utils.Success(c, "Portfolio item deleted", nil)
}

func (h *ProfileHandler) getCertificates(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	q := h.db.Where("user_id = ?", ownerID)

	// Visitors only see verified certificates; owners see all.
	user := middleware.CurrentUser(c)
	if user.ID != ownerID && !user.IsAdmin() {
		q = q.Where("verification_status = ?", models.CertificateVerified)
	}

	var certificates []models.Certificate
	if err := q.Order("created_at DESC").Find(&certificates).Error; err != nil {
		utils.ServerError(c, "Failed to load certificates")
		return
	}

	utils.Success(c, "", gin.H{"certificates": certificates})
}

type certificateRequest struct {
	Title               string  `json:"title"`
	IssuingOrganization string  `json:"issuing_organization"`
	CertificateURL      string  `json:"certificate_url"`
	IssueDate           *string `json:"issue_date"`
	ExpiryDate          *string `json:"expiry_date"`
	CertificateType     string  `json:"certificate_type"`
	Description         string  `json:"description"`
}

// addCertificate submits a certificate for review. New rows always
// start pending regardless of what the client sends.
func (h *ProfileHandler) addCertificate(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req certificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.IssuingOrganization) == "" {
		utils.BadRequest(c, "Title and issuing organization are required")
		return
	}

	cert := models.Certificate{
		UserID:              user.ID,
		Title:               strings.TrimSpace(req.Title),
		IssuingOrganization: strings.TrimSpace(req.IssuingOrganization),
		CertificateURL:      req.CertificateURL,
		IssueDate:           req.IssueDate,
		ExpiryDate:          req.ExpiryDate,
		Description:         req.Description,
		VerificationStatus:  models.CertificatePending,
	}
	if req.CertificateType != "" {
		cert.CertificateType = req.CertificateType
	}

	if err := h.db.Create(&cert).Error; err != nil {
		utils.ServerError(c, "Failed to add certificate")
		return
	}

	utils.Created(c, "Certificate submitted for review", gin.H{"certificate": cert})
}

func (h *ProfileHandler) deleteCertificate(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var cert models.Certificate
	if !h.loadOwned(c, user.ID, &cert, "Certificate not found") {
		return
	}

	if err := h.db.Delete(&cert).Error; err != nil {
		utils.ServerError(c, "Failed to delete certificate")
		return
	}

	utils.Success(c, "Certificate deleted", nil)
}

func (h *ProfileHandler) getBusinessHours(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	var hours []models.BusinessHour
	err := h.db.Where("user_id = ?", ownerID).Find(&hours).Error
	if err != nil {
		utils.ServerError(c, "Failed to load business hours")
		return
	}

	// Return in weekday order regardless of insertion order.
	byDay := make(map[string]models.BusinessHour, len(hours))
	for _, hour := range hours {
		byDay[hour.DayOfWeek] = hour
	}
	ordered := make([]models.BusinessHour, 0, len(hours))
	for _, day := range businessHourDays {
		if hour, ok := byDay[day]; ok {
			ordered = append(ordered, hour)
		}
	}

	utils.Success(c, "", gin.H{"business_hours": ordered})
}

type businessHourEntry struct {
	DayOfWeek string  `json:"day_of_week"`
	IsOpen    bool    `json:"is_open"`
	OpenTime  *string `json:"open_time"`
	CloseTime *string `json:"close_time"`
	Is24Hours bool    `json:"is_24_hours"`
}

// updateBusinessHours replaces the provider's whole weekly set in one
// transaction, so readers never see a half-written week.
func (h *ProfileHandler) updateBusinessHours(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req struct {
		Hours []businessHourEntry `json:"hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Hours) == 0 {
		utils.BadRequest(c, "Hours are required")
		return
	}

	valid := make(map[string]bool, len(businessHourDays))
	for _, day := range businessHourDays {
		valid[day] = true
	}
	for _, entry := range req.Hours {
		if !valid[strings.ToLower(entry.DayOfWeek)] {
			utils.BadRequest(c, "Invalid day of week: "+entry.DayOfWeek)
			return
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.BusinessHour{}).Error; err != nil {
			return err
		}
		for _, entry := range req.Hours {
			hour := models.BusinessHour{
				UserID:    user.ID,
				DayOfWeek: strings.ToLower(entry.DayOfWeek),
				IsOpen:    entry.IsOpen,
				OpenTime:  entry.OpenTime,
				CloseTime: entry.CloseTime,
				Is24Hours: entry.Is24Hours,
			}
			if err := tx.Create(&hour).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.ServerError(c, "Failed to update business hours")
		return
	}

	utils.Success(c, "Business hours updated", nil)
}

func (h *ProfileHandler) getServiceAreas(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	var areas []models.ServiceArea
	err := h.db.Where("user_id = ?", ownerID).
		Order("is_primary DESC, area_name ASC").
		Find(&areas).Error
	if err != nil {
		utils.ServerError(c, "Failed to load service areas")
		return
	}

	utils.Success(c, "", gin.H{"service_areas": areas})
}

type serviceAreaRequest struct {
	AreaName          string   `json:"area_name"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	Pincode           string   `json:"pincode"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	ServiceCharge     *float64 `json:"service_charge"`
	TravelTimeMinutes *int     `json:"travel_time_minutes"`
	IsPrimary         *bool    `json:"is_primary"`
}

func (h *ProfileHandler) addServiceArea(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req serviceAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AreaName) == "" {
		utils.BadRequest(c, "Area name is required")
		return
	}

	area := models.ServiceArea{
		UserID:    user.ID,
		AreaName:  strings.TrimSpace(req.AreaName),
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.ServiceCharge != nil {
		area.ServiceCharge = *req.ServiceCharge
	}
	if req.TravelTimeMinutes != nil {
		area.TravelTimeMinutes = *req.TravelTimeMinutes
	}
	if req.IsPrimary != nil {
		area.IsPrimary = *req.IsPrimary
	}

	if err := h.db.Create(&area).Error; err != nil {
		utils.ServerError(c, "Failed to add service area")
		return
	}

	utils.Created(c, "Service area added", gin.H{"service_area": area})
}

func (h *ProfileHandler) updateServiceArea(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var area models.ServiceArea
	if !h.loadOwned(c, user.ID, &area, "Service area not found") {
		return
	}

	var req serviceAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if name := strings.TrimSpace(req.AreaName); name != "" {
		area.AreaName = name
	}
	if req.City != "" {
		area.City = req.City
	}
	if req.State != "" {
		area.State = req.State
	}
	if req.Pincode != "" {
		area.Pincode = req.Pincode
	}
	if req.Latitude != nil {
		area.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		area.Longitude = req.Longitude
	}
	if req.ServiceCharge != nil {
		area.ServiceCharge = *req.ServiceCharge
	}
	if req.TravelTimeMinutes != nil {
		area.TravelTimeMinutes = *req.TravelTimeMinutes
	}
	if req.IsPrimary != nil {
		area.IsPrimary = *req.IsPrimary
	}

	if err := h.db.Save(&area).Error; err != nil {
		utils.ServerError(c, "Failed to update service area")
		return
	}

	utils.Success(c, "Service area updated", gin.H{"service_area": area})
}

func (h *ProfileHandler) deleteServiceArea(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var area models.ServiceArea
	if !h.loadOwned(c, user.ID, &area, "Service area not found") {
		return
	}

	if err := h.db.Delete(&area).Error; err != nil {
		utils.ServerError(c, "Failed to delete service area")
		return
	}

	utils.Success(c, "Service area deleted", nil)
}

func (h *ProfileHandler) getWorkExperience(c *gin.Context) {
	ownerID, ok := h.profileOwner(c)
	if !ok {
		return
	}

	var experience []models.WorkExperience
	err := h.db.Where("user_id = ?", ownerID).
		Order("is_current DESC, start_date DESC").
		Find(&experience).Error
	if err != nil {
		utils.ServerError(c, "Failed to load work experience")
		return
	}

	utils.Success(c, "", gin.H{"work_experience": experience})
}

type workExperienceRequest struct {
	CompanyName  string  `json:"company_name"`
	Position     string  `json:"position"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	IsCurrent    *bool   `json:"is_current"`
	Description  string  `json:"description"`
	Achievements string  `json:"achievements"`
}

func (h *ProfileHandler) addWorkExperience(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var req workExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" {
		utils.BadRequest(c, "Company name is required")
		return
	}

	experience := models.WorkExperience{
		UserID:       user.ID,
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Position:     req.Position,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Description:  req.Description,
		Achievements: req.Achievements,
	}
	if req.IsCurrent != nil {
		experience.IsCurrent = *req.IsCurrent
	}

	if err := h.db.Create(&experience).Error; err != nil {
		utils.ServerError(c, "Failed to add work experience")
		return
	}

	utils.Created(c, "Work experience added", gin.H{"work_experience": experience})
}

func (h *ProfileHandler) updateWorkExperience(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var experience models.WorkExperience
	if !h.loadOwned(c, user.ID, &experience, "Work experience not found") {
		return
	}

	var req workExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if name := strings.TrimSpace(req.CompanyName); name != "" {
		experience.CompanyName = name
	}
	if req.Position != "" {
		experience.Position = req.Position
	}
	if req.StartDate != nil {
		experience.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		experience.EndDate = req.EndDate
	}
	if req.IsCurrent != nil {
		experience.IsCurrent = *req.IsCurrent
	}
	if req.Description != "" {
		experience.Description = req.Description
	}
	if req.Achievements != "" {
		experience.Achievements = req.Achievements
	}

	if err := h.db.Save(&experience).Error; err != nil {
		utils.ServerError(c, "Failed to update work experience")
		return
	}

	utils.Success(c, "Work experience updated", gin.H{"work_experience": experience})
}

func (h *ProfileHandler) deleteWorkExperience(c *gin.Context) {
	user, ok := h.requireProvider(c)
	if !ok {
		return
	}

	var experience models.WorkExperience
	if !h.loadOwned(c, user.ID, &experience, "Work experience not found") {
		return
	}

	if err := h.db.Delete(&experience).Error; err != nil {
		utils.ServerError(c, "Failed to delete work experience")
		return
	}

	utils.Success(c, "Work experience deleted", nil)
}

// requireProvider gates the write actions: only providers own the
// extended profile surface.
func (h *ProfileHandler) requireProvider(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if !user.IsProvider() {
		utils.Error(c, http.StatusForbidden, "Only providers can manage profile details")
		return nil, false
	}
	return user, true
}

// loadOwned fetches a row by ?id= scoped to the owner, writing the
// error response itself on failure.
func (h *ProfileHandler) loadOwned(c *gin.Context, userID uint, dest interface{}, notFound string) bool {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "ID is required")
		return false
	}

	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(dest).Error; err != nil {
		utils.Error(c, http.StatusNotFound, notFound)
		return false
	}

	return true
}
