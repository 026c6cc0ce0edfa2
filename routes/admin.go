package routes

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

// AdminHandler serves moderation and platform oversight under
// /api/admin. The whole group sits behind RequireAdmin.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func RegisterAdminRoutes(rg *gin.RouterGroup, h *AdminHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.DELETE("", h.handleDelete)
}

func (h *AdminHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "dashboard":
		h.dashboard(c)
	case "users":
		h.users(c)
	case "services":
		h.services(c)
	case "certificates":
		h.certificates(c)
	case "actions":
		h.actions(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *AdminHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "block-user":
		h.blockUser(c)
	case "unblock-user":
		h.unblockUser(c)
	case "verify-user":
		h.verifyUser(c)
	case "unverify-user":
		h.unverifyUser(c)
	case "approve-certificate":
		h.reviewCertificate(c, models.CertificateVerified)
	case "reject-certificate":
		h.reviewCertificate(c, models.CertificateRejected)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *AdminHandler) handleDelete(c *gin.Context) {
	switch c.Query("action") {
	case "delete-service":
		h.deleteService(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

// logAction appends the audit row for a moderation act. Audit failures
// are logged, never surfaced: the act itself already happened.
func (h *AdminHandler) logAction(adminID uint, actionType string, target models.AdminAction) {
	target.AdminID = adminID
	target.ActionType = actionType
	if err := h.db.Create(&target).Error; err != nil {
		log.Printf("failed to record admin action %s: %v", actionType, err)
	}
}

func (h *AdminHandler) dashboard(c *gin.Context) {
	var stats struct {
		TotalUsers     int64 `json:"total_users"`
		TotalCustomers int64 `json:"total_customers"`
		TotalProviders int64 `json:"total_providers"`
		BlockedUsers   int64 `json:"blocked_users"`
		VerifiedUsers  int64 `json:"verified_users"`
		TotalServices  int64 `json:"total_services"`
		ActiveServices int64 `json:"active_services"`
		TotalBookings  int64 `json:"total_bookings"`
		PendingCerts   int64 `json:"pending_certificates"`
	}

	h.db.Model(&models.User{}).Count(&stats.TotalUsers)
	h.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&stats.TotalCustomers)
	h.db.Model(&models.User{}).Where("role = ?", models.RoleProvider).Count(&stats.TotalProviders)
	h.db.Model(&models.User{}).Where("is_blocked = ?", true).Count(&stats.BlockedUsers)
	h.db.Model(&models.User{}).Where("is_verified = ?", true).Count(&stats.VerifiedUsers)
	h.db.Model(&models.Service{}).Count(&stats.TotalServices)
	h.db.Model(&models.Service{}).Where("is_active = ?", true).Count(&stats.ActiveServices)
	h.db.Model(&models.Booking{}).Count(&stats.TotalBookings)
	h.db.Model(&models.Certificate{}).Where("verification_status = ?", models.CertificatePending).Count(&stats.PendingCerts)

	var recentUsers []models.User
	h.db.Order("created_at DESC").Limit(5).Find(&recentUsers)

	var recentBookings []models.Booking
	h.db.Preload("Service").Preload("Customer").Order("created_at DESC").Limit(5).Find(&recentBookings)

	utils.Success(c, "", gin.H{
		"stats":           stats,
		"recent_users":    recentUsers,
		"recent_bookings": recentBookings,
	})
}

func (h *AdminHandler) users(c *gin.Context) {
	q := h.db.Model(&models.User{})

	switch filter := c.Query("filter"); filter {
	case "", "all":
	case "blocked":
		q = q.Where("is_blocked = ?", true)
	case "verified":
		q = q.Where("is_verified = ?", true)
	default:
		if models.IsValidRole(filter) {
			q = q.Where("role = ?", filter)
		} else {
			utils.BadRequest(c, "Invalid filter")
			return
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(full_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", pattern, pattern)
	}

	var users []models.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		utils.ServerError(c, "Failed to load users")
		return
	}

	utils.Success(c, "", gin.H{"users": users})
}

func (h *AdminHandler) services(c *gin.Context) {
	var services []models.Service
	err := h.db.Preload("Provider").Order("created_at DESC").Find(&services).Error
	if err != nil {
		utils.ServerError(c, "Failed to load services")
		return
	}

	items := make([]serviceListItem, 0, len(services))
	for _, s := range services {
		items = append(items, toListItem(s))
	}

	utils.Success(c, "", gin.H{"services": items})
}

// certificateView carries the owner's display fields the review queue
// shows next to each certificate.
type certificateView struct {
	models.Certificate
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

func (h *AdminHandler) certificates(c *gin.Context) {
	q := h.db.Preload("User")
	if status := c.Query("status"); status != "" && status != "all" {
		q = q.Where("verification_status = ?", status)
	}

	var certificates []models.Certificate
	if err := q.Order("created_at ASC").Find(&certificates).Error; err != nil {
		utils.ServerError(c, "Failed to load certificates")
		return
	}

	views := make([]certificateView, 0, len(certificates))
	for _, cert := range certificates {
		views = append(views, certificateView{
			Certificate: cert,
			OwnerName:   cert.User.FullName,
			OwnerEmail:  cert.User.Email,
		})
	}

	utils.Success(c, "", gin.H{"certificates": views})
}

// actions returns the audit log newest-first, capped at 50 rows for
// the dashboard view.
func (h *AdminHandler) actions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 50 {
		limit = 50
	}

	q := h.db.Preload("Admin")
	if actionType := c.Query("type"); actionType != "" {
		q = q.Where("action_type = ?", actionType)
	}

	var actions []models.AdminAction
	if err := q.Order("created_at DESC").Limit(limit).Find(&actions).Error; err != nil {
		utils.ServerError(c, "Failed to load admin actions")
		return
	}

	utils.Success(c, "", gin.H{"actions": actions})
}

type moderateUserRequest struct {
	UserID uint   `json:"user_id"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) blockUser(c *gin.Context) {
	admin := middleware.CurrentUser(c)

	var req moderateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		utils.BadRequest(c, "User ID is required")
		return
	}
	if req.UserID == admin.ID {
		utils.BadRequest(c, "You cannot block your own account")
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_blocked":     true,
		"blocked_reason": req.Reason,
		"blocked_date":   now,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to block user")
		return
	}

	h.logAction(admin.ID, models.ActionBlockUser, models.AdminAction{
		TargetUserID: &user.ID,
		Notes:        req.Reason,
	})

	utils.Success(c, "User blocked successfully", nil)
}

func (h *AdminHandler) unblockUser(c *gin.Context) {
	admin := middleware.CurrentUser(c)

	var req moderateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		utils.BadRequest(c, "User ID is required")
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	updates := map[string]interface{}{
		"is_blocked":     false,
		"blocked_reason": nil,
		"blocked_date":   nil,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to unblock user")
		return
	}

	h.logAction(admin.ID, models.ActionUnblockUser, models.AdminAction{
		TargetUserID: &user.ID,
		Notes:        req.Reason,
	})

	utils.Success(c, "User unblocked successfully", nil)
}

func (h *AdminHandler) verifyUser(c *gin.Context) {
	admin := middleware.CurrentUser(c)

	var req moderateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		utils.BadRequest(c, "User ID is required")
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_verified":       true,
		"verification_date": now,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to verify user")
		return
	}

	h.logAction(admin.ID, models.ActionVerifyUser, models.AdminAction{
		TargetUserID: &user.ID,
		Notes:        req.Reason,
	})

	h.notifyUser(user.ID, "Account verified", "Your account has been verified by the administrator")

	utils.Success(c, "User verified successfully", nil)
}

func (h *AdminHandler) unverifyUser(c *gin.Context) {
	admin := middleware.CurrentUser(c)

	var req moderateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		utils.BadRequest(c, "User ID is required")
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	updates := map[string]interface{}{
		"is_verified":       false,
		"verification_date": nil,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to update user")
		return
	}

	h.logAction(admin.ID, models.ActionUnverifyUser, models.AdminAction{
		TargetUserID: &user.ID,
		Notes:        req.Reason,
	})

	utils.Success(c, "User verification removed", nil)
}

type reviewCertificateRequest struct {
	CertificateID uint   `json:"certificate_id"`
	Notes         string `json:"notes"`
}

func (h *AdminHandler) reviewCertificate(c *gin.Context, status models.CertificateStatus) {
	admin := middleware.CurrentUser(c)

	var req reviewCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CertificateID == 0 {
		utils.BadRequest(c, "Certificate ID is required")
		return
	}

	var cert models.Certificate
	if err := h.db.First(&cert, req.CertificateID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Certificate not found")
		return
	}

	if err := h.db.Model(&cert).Update("verification_status", status).Error; err != nil {
		utils.ServerError(c, "Failed to update certificate")
		return
	}

	actionType := models.ActionApproveCertificate
	title := "Certificate approved"
	body := fmt.Sprintf("Your certificate %q has been approved", cert.Title)
	if status == models.CertificateRejected {
		actionType = models.ActionRejectCertificate
		title = "Certificate rejected"
		body = fmt.Sprintf("Your certificate %q has been rejected", cert.Title)
		if req.Notes != "" {
			body += ": " + req.Notes
		}
	}

	h.logAction(admin.ID, actionType, models.AdminAction{
		TargetUserID:        &cert.UserID,
		TargetCertificateID: &cert.ID,
		Notes:               req.Notes,
	})

	h.notifyCertificate(cert.UserID, cert.ID, title, body)

	utils.Success(c, "Certificate "+string(status), gin.H{"certificate": cert})
}

func (h *AdminHandler) deleteService(c *gin.Context) {
	admin := middleware.CurrentUser(c)

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

	if err := h.db.Delete(&service).Error; err != nil {
		utils.ServerError(c, "Failed to delete service")
		return
	}

	reason := c.Query("reason")
	h.logAction(admin.ID, models.ActionDeleteService, models.AdminAction{
		TargetUserID:    &service.ProviderID,
		TargetServiceID: &service.ID,
		Notes:           reason,
	})

	body := fmt.Sprintf("Your service %q was removed by the administrator", service.Title)
	if reason != "" {
		body += ": " + reason
	}
	h.notifyUser(service.ProviderID, "Service removed", body)

	utils.Success(c, "Service deleted successfully", nil)
}

func (h *AdminHandler) notifyUser(userID uint, title, body string) {
	notification := models.Notification{
		UserID:  userID,
		Type:    models.NotificationAdmin,
		Title:   title,
		Message: body,
	}
	if err := h.db.Create(&notification).Error; err != nil {
		log.Printf("failed to create admin notification: %v", err)
	}
}

func (h *AdminHandler) notifyCertificate(userID, certID uint, title, body string) {
	notification := models.Notification{
		UserID:    userID,
		Type:      models.NotificationCertificate,
		Title:     title,
		Message:   body,
		RelatedID: &certID,
	}
	if err := h.db.Create(&notification).Error; err != nil {
		log.Printf("failed to create certificate notification: %v", err)
	}
}
