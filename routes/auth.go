package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quickserve-server/config"
	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

// AuthHandler serves signup, login and account actions under /api/auth.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

func RegisterAuthRoutes(rg *gin.RouterGroup, h *AuthHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.PUT("", h.handlePut)
}

func (h *AuthHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "profile":
		h.getProfile(c)
	case "verify-token":
		h.verifyToken(c)
	case "users":
		h.listUsers(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *AuthHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "signup":
		h.signup(c)
	case "login":
		h.login(c)
	case "logout":
		h.logout(c)
	case "verify-token":
		h.verifyToken(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *AuthHandler) handlePut(c *gin.Context) {
	switch c.Query("action") {
	case "profile":
		h.updateProfile(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

type signupRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Location string `json:"location"`
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Full name, email and password are required")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	if !models.IsValidRole(req.Role) || req.Role == models.RoleAdmin {
		utils.BadRequest(c, "Invalid role")
		return
	}

	var count int64
	h.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		utils.BadRequest(c, "An account with this email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(c, "Failed to create account")
		return
	}

	user := models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
		Location:     req.Location,
		IsActive:     true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			utils.BadRequest(c, "An account with this email already exists")
			return
		}
		utils.ServerError(c, "Failed to create account")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, h.cfg.JWT.Secret, h.cfg.JWT.ExpiryHours)
	if err != nil {
		utils.ServerError(c, "Failed to create session")
		return
	}

	utils.Created(c, "Account created successfully", gin.H{
		"token": token,
		"user":  user,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email and password are required")
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		utils.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if user.IsBlocked {
		msg := "Your account has been blocked by the administrator"
		if user.BlockedReason != nil && *user.BlockedReason != "" {
			msg += ": " + *user.BlockedReason
		}
		utils.Error(c, http.StatusForbidden, msg)
		return
	}

	if !user.IsActive {
		utils.Error(c, http.StatusUnauthorized, "This account has been deactivated")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, h.cfg.JWT.Secret, h.cfg.JWT.ExpiryHours)
	if err != nil {
		utils.ServerError(c, "Failed to create session")
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// logout is a client-side concern with stateless tokens; the endpoint
// exists so clients have a uniform place to end a session.
func (h *AuthHandler) logout(c *gin.Context) {
	utils.Success(c, "Logged out successfully", nil)
}

func (h *AuthHandler) verifyToken(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	utils.Success(c, "Token is valid", gin.H{"user": user})
}

func (h *AuthHandler) getProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	utils.Success(c, "", gin.H{"user": user})
}

type updateProfileRequest struct {
	FullName *string  `json:"full_name"`
	Phone    *string  `json:"phone"`
	Location *string  `json:"location"`
	Bio      *string  `json:"bio"`
	Avatar   *string  `json:"avatar"`
	Latitude *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *AuthHandler) updateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Latitude != nil && req.Longitude != nil {
		now := time.Now()
		updates["latitude"] = *req.Latitude
		updates["longitude"] = *req.Longitude
		updates["last_location_update"] = now
	}

	if len(updates) == 0 {
		utils.BadRequest(c, "No fields to update")
		return
	}
	updates["profile_completed"] = true

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to update profile")
		return
	}

	var fresh models.User
	h.db.First(&fresh, user.ID)
	utils.Success(c, "Profile updated successfully", gin.H{"user": fresh})
}

// listUsers is an authenticated directory lookup used by clients to
// start conversations: it exposes only active, unblocked accounts.
func (h *AuthHandler) listUsers(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := h.db.Model(&models.User{}).
		Where("is_active = ? AND is_blocked = ?", true, false).
		Where("id <> ?", user.ID)

	if role := c.Query("role"); role != "" && models.IsValidRole(role) {
		q = q.Where("role = ?", role)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(full_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", pattern, pattern)
	}

	var users []models.User
	if err := q.Order("full_name ASC").Limit(100).Find(&users).Error; err != nil {
		utils.ServerError(c, "Failed to load users")
		return
	}

	utils.Success(c, "", gin.H{"users": users})
}
