package routes

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

// ServiceHandler serves the public catalog and the provider-facing
// listing CRUD under /api/services.
type ServiceHandler struct {
	db *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

func RegisterServiceRoutes(rg *gin.RouterGroup, h *ServiceHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.PUT("", h.handlePut)
	rg.DELETE("", h.handleDelete)
}

func (h *ServiceHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "list", "":
		h.list(c)
	case "service":
		h.get(c)
	case "categories":
		h.categories(c)
	case "my-services":
		h.myServices(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ServiceHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "create", "":
		h.create(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ServiceHandler) handlePut(c *gin.Context) {
	switch c.Query("action") {
	case "update", "":
		h.update(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ServiceHandler) handleDelete(c *gin.Context) {
	switch c.Query("action") {
	case "delete", "":
		h.delete(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

// serviceListItem flattens the provider fields the catalog clients
// render next to each listing.
type serviceListItem struct {
	models.Service
	ProviderName     string  `json:"provider_name"`
	ProviderPhone    string  `json:"provider_phone"`
	ProviderAvatar   string  `json:"provider_avatar"`
	ProviderRating   float64 `json:"provider_rating"`
	ProviderVerified bool    `json:"provider_verified"`
}

func toListItem(s models.Service) serviceListItem {
	return serviceListItem{
		Service:          s,
		ProviderName:     s.Provider.FullName,
		ProviderPhone:    s.Provider.Phone,
		ProviderAvatar:   s.Provider.Avatar,
		ProviderRating:   s.Provider.Rating,
		ProviderVerified: s.Provider.IsVerified,
	}
}

func (h *ServiceHandler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	q := h.db.Model(&models.Service{}).Where("services.is_active = ?", true)

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(location) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	if category := c.Query("category"); category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			q = q.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			q = q.Where("price <= ?", v)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.ServerError(c, "Failed to load services")
		return
	}

	var services []models.Service
	err := q.Preload("Provider").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&services).Error
	if err != nil {
		utils.ServerError(c, "Failed to load services")
		return
	}

	items := make([]serviceListItem, 0, len(services))
	for _, s := range services {
		items = append(items, toListItem(s))
	}

	utils.Success(c, "", gin.H{
		"services": items,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *ServiceHandler) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Service ID is required")
		return
	}

	var service models.Service
	if err := h.db.Preload("Provider").First(&service, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Service not found")
		return
	}

	// Retired listings are invisible to the public; the owner and
	// admins still see them for history and moderation.
	if !service.IsActive {
		user := middleware.CurrentUser(c)
		if user == nil || (service.ProviderID != user.ID && !user.IsAdmin()) {
			utils.Error(c, http.StatusNotFound, "Service not found")
			return
		}
	}

	utils.Success(c, "", gin.H{"service": toListItem(service)})
}

// categories returns the distinct categories of active listings with
// per-category counts, for the catalog filter UI.
func (h *ServiceHandler) categories(c *gin.Context) {
	type categoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}

	var categories []categoryCount
	err := h.db.Model(&models.Service{}).
		Select("category, COUNT(*) as count").
		Where("is_active = ?", true).
		Group("category").
		Order("category ASC").
		Scan(&categories).Error
	if err != nil {
		utils.ServerError(c, "Failed to load categories")
		return
	}

	utils.Success(c, "", gin.H{"categories": categories})
}

func (h *ServiceHandler) myServices(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !user.IsProvider() && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "Only providers can manage services")
		return
	}

	var services []models.Service
	err := h.db.Where("provider_id = ?", user.ID).
		Order("created_at DESC").
		Find(&services).Error
	if err != nil {
		utils.ServerError(c, "Failed to load services")
		return
	}

	utils.Success(c, "", gin.H{"services": services})
}

type serviceRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Category     string               `json:"category"`
	Price        *float64             `json:"price"`
	Location     string               `json:"location"`
	Availability models.Availability  `json:"availability"`
	WorkingHours *models.WorkingHours `json:"working_hours"`
	IsActive     *bool                `json:"is_active"`
}

func (h *ServiceHandler) create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !user.IsProvider() {
		utils.Error(c, http.StatusForbidden, "Only providers can create services")
		return
	}

	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Description == "" || req.Category == "" || req.Price == nil {
		utils.BadRequest(c, "Title, description, category and price are required")
		return
	}
	if *req.Price <= 0 {
		utils.BadRequest(c, "Price must be greater than zero")
		return
	}

	service := models.Service{
		ProviderID:   user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        *req.Price,
		Location:     req.Location,
		Availability: req.Availability,
		IsActive:     true,
	}
	if service.Availability == nil {
		service.Availability = models.DefaultAvailability()
	}
	if req.WorkingHours != nil {
		service.WorkingHours = *req.WorkingHours
	} else {
		service.WorkingHours = models.DefaultWorkingHours()
	}

	if err := h.db.Create(&service).Error; err != nil {
		utils.ServerError(c, "Failed to create service")
		return
	}

	utils.Created(c, "Service created successfully", gin.H{"service": service})
}

func (h *ServiceHandler) update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Service ID is required")
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Service not found")
		return
	}
	if service.ProviderID != user.ID && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "You can only update your own services")
		return
	}

	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		service.Title = title
	}
	if req.Description != "" {
		service.Description = req.Description
	}
	if req.Category != "" {
		service.Category = req.Category
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.BadRequest(c, "Price must be greater than zero")
			return
		}
		service.Price = *req.Price
	}
	if req.Location != "" {
		service.Location = req.Location
	}
	if req.Availability != nil {
		service.Availability = req.Availability
	}
	if req.WorkingHours != nil {
		service.WorkingHours = *req.WorkingHours
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}

	if err := h.db.Save(&service).Error; err != nil {
		utils.ServerError(c, "Failed to update service")
		return
	}

	utils.Success(c, "Service updated successfully", gin.H{"service": service})
}

// delete retires a listing by flipping is_active, keeping the row so
// booking history stays resolvable. Hard deletion is reserved for
// admin moderation.
func (h *ServiceHandler) delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Service ID is required")
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Service not found")
		return
	}
	if service.ProviderID != user.ID && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "You can only delete your own services")
		return
	}

	if err := h.db.Model(&service).Update("is_active", false).Error; err != nil {
		utils.ServerError(c, "Failed to delete service")
		return
	}

	utils.Success(c, "Service deleted successfully", nil)
}
