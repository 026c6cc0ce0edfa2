package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickserve-server/models"
)

func TestBlockUserLocksOutSessions(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.createUser(models.RoleAdmin)
	target, targetToken := env.createUser(models.RoleCustomer)

	w := env.request(http.MethodPost, "/api/admin?action=block-user", adminToken, map[string]interface{}{
		"user_id": target.ID,
		"reason":  "repeated no-shows",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Existing tokens stop resolving, with the reason surfaced.
	w = env.request(http.MethodGet, "/api/bookings?action=list", targetToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Your account has been blocked by the administrator: repeated no-shows",
		decodeBody(t, w)["message"])

	// The act leaves an audit row.
	var action models.AdminAction
	require.NoError(t, env.db.First(&action).Error)
	assert.Equal(t, admin.ID, action.AdminID)
	assert.Equal(t, models.ActionBlockUser, action.ActionType)
	require.NotNil(t, action.TargetUserID)
	assert.Equal(t, target.ID, *action.TargetUserID)
	assert.Equal(t, "repeated no-shows", action.Notes)
}

func TestUnblockRestoresAccess(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	target, targetToken := env.createUser(models.RoleCustomer)

	w := env.request(http.MethodPost, "/api/admin?action=block-user", adminToken, map[string]interface{}{
		"user_id": target.ID,
		"reason":  "mistake",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(http.MethodPost, "/api/admin?action=unblock-user", adminToken, map[string]interface{}{
		"user_id": target.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(http.MethodGet, "/api/bookings?action=list", targetToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.User
	require.NoError(t, env.db.First(&fresh, target.ID).Error)
	assert.False(t, fresh.IsBlocked)
	assert.Nil(t, fresh.BlockedReason)
}

func TestAdminCannotBlockSelf(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.createUser(models.RoleAdmin)

	w := env.request(http.MethodPost, "/api/admin?action=block-user", adminToken, map[string]interface{}{
		"user_id": admin.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminGroupRejectsNonAdmins(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.createUser(models.RoleCustomer)

	w := env.request(http.MethodGet, "/api/admin?action=dashboard", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyUser(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	target, _ := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/admin?action=verify-user", adminToken, map[string]interface{}{
		"user_id": target.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.User
	require.NoError(t, env.db.First(&fresh, target.ID).Error)
	assert.True(t, fresh.IsVerified)
	assert.NotNil(t, fresh.VerificationDate)

	// The provider is told about it.
	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", target.ID).First(&notification).Error)
	assert.Equal(t, models.NotificationAdmin, notification.Type)
}

func TestCertificateReview(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	provider, _ := env.createUser(models.RoleProvider)

	cert := models.Certificate{
		UserID:              provider.ID,
		Title:               "Master Plumber",
		IssuingOrganization: "Trade Board",
		VerificationStatus:  models.CertificatePending,
	}
	require.NoError(t, env.db.Create(&cert).Error)

	w := env.request(http.MethodPost, "/api/admin?action=approve-certificate", adminToken, map[string]interface{}{
		"certificate_id": cert.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.Certificate
	require.NoError(t, env.db.First(&fresh, cert.ID).Error)
	assert.Equal(t, models.CertificateVerified, fresh.VerificationStatus)

	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&notification).Error)
	assert.Equal(t, models.NotificationCertificate, notification.Type)
	assert.Equal(t, "Certificate approved", notification.Title)

	var action models.AdminAction
	require.NoError(t, env.db.First(&action).Error)
	assert.Equal(t, models.ActionApproveCertificate, action.ActionType)
}

func TestAdminDeleteService(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	provider, _ := env.createUser(models.RoleProvider)
	service := env.createService(provider.ID, "Doomed listing")

	w := env.request(http.MethodDelete,
		fmt.Sprintf("/api/admin?action=delete-service&id=%d&reason=policy+violation", service.ID),
		adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Model(&models.Service{}).Where("id = ?", service.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	var action models.AdminAction
	require.NoError(t, env.db.First(&action).Error)
	assert.Equal(t, models.ActionDeleteService, action.ActionType)
	require.NotNil(t, action.TargetServiceID)
	assert.Equal(t, service.ID, *action.TargetServiceID)
}

func TestAdminUsersFilterAndSearch(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	env.createUser(models.RoleProvider)
	blocked, _ := env.createUser(models.RoleCustomer)
	require.NoError(t, env.db.Model(blocked).Update("is_blocked", true).Error)

	w := env.request(http.MethodGet, "/api/admin?action=users&filter=provider", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["users"], 1)

	w = env.request(http.MethodGet, "/api/admin?action=users&filter=blocked", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["users"], 1)

	w = env.request(http.MethodGet, "/api/admin?action=users&filter=nonsense", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardCounts(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)
	provider, _ := env.createUser(models.RoleProvider)
	env.createUser(models.RoleCustomer)
	env.createService(provider.ID, "Counted service")

	w := env.request(http.MethodGet, "/api/admin?action=dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)["stats"].(map[string]interface{})
	assert.EqualValues(t, 3, stats["total_users"])
	assert.EqualValues(t, 1, stats["total_providers"])
	assert.EqualValues(t, 1, stats["active_services"])
}
