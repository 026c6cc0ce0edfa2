package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickserve-server/models"
)

func TestUpdateProviderProfileUpsert(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPut, "/api/profiles?action=profile", providerToken, map[string]interface{}{
		"business_name":    "Ada's Repairs",
		"experience_years": 7,
		"hourly_rate":      45.5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var profile models.ProviderProfile
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&profile).Error)
	assert.Equal(t, "Ada's Repairs", profile.BusinessName)
	assert.Equal(t, 7, profile.ExperienceYears)

	// A second update touches the same row, not a new one.
	w = env.request(http.MethodPut, "/api/profiles?action=profile", providerToken, map[string]interface{}{
		"business_name": "Ada's Repairs Ltd",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Model(&models.ProviderProfile{}).Count(&count)
	assert.EqualValues(t, 1, count)

	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&profile).Error)
	assert.Equal(t, "Ada's Repairs Ltd", profile.BusinessName)
	assert.Equal(t, 7, profile.ExperienceYears, "untouched fields survive")
}

func TestProviderProfileCustomerRejected(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.createUser(models.RoleCustomer)

	w := env.request(http.MethodPut, "/api/profiles?action=profile", customerToken, map[string]interface{}{
		"business_name": "Not a provider",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPortfolioCRUD(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/profiles?action=portfolio", providerToken, map[string]interface{}{
		"title":       "Bathroom renovation",
		"description": "Full refit",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var item models.PortfolioItem
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&item).Error)

	w = env.request(http.MethodPut, fmt.Sprintf("/api/profiles?action=portfolio&id=%d", item.ID),
		providerToken, map[string]interface{}{"title": "Bathroom renovation 2024", "is_featured": true})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&item, item.ID).Error)
	assert.Equal(t, "Bathroom renovation 2024", item.Title)
	assert.True(t, item.IsFeatured)

	w = env.request(http.MethodDelete, fmt.Sprintf("/api/profiles?action=portfolio&id=%d", item.ID),
		providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Model(&models.PortfolioItem{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestPortfolioOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(models.RoleProvider)
	_, otherToken := env.createUser(models.RoleProvider)

	item := models.PortfolioItem{UserID: owner.ID, Title: "Owned work"}
	require.NoError(t, env.db.Create(&item).Error)

	w := env.request(http.MethodDelete, fmt.Sprintf("/api/profiles?action=portfolio&id=%d", item.ID),
		otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCertificateSubmissionStartsPending(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/profiles?action=certificates", providerToken, map[string]interface{}{
		"title":                "Gas Safe",
		"issuing_organization": "Gas Safe Register",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cert models.Certificate
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&cert).Error)
	assert.Equal(t, models.CertificatePending, cert.VerificationStatus)
}

func TestCertificatesVisitorSeesOnlyVerified(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)
	_, visitorToken := env.createUser(models.RoleCustomer)

	pending := models.Certificate{UserID: provider.ID, Title: "Pending", IssuingOrganization: "Org", VerificationStatus: models.CertificatePending}
	verified := models.Certificate{UserID: provider.ID, Title: "Verified", IssuingOrganization: "Org", VerificationStatus: models.CertificateVerified}
	require.NoError(t, env.db.Create(&pending).Error)
	require.NoError(t, env.db.Create(&verified).Error)

	url := fmt.Sprintf("/api/profiles?action=certificates&user_id=%d", provider.ID)

	w := env.request(http.MethodGet, url, visitorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["certificates"], 1)

	w = env.request(http.MethodGet, url, providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["certificates"], 2)
}

func TestBusinessHoursReplaceWholeWeek(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPut, "/api/profiles?action=business-hours", providerToken, map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": "monday", "is_open": true, "open_time": "08:00", "close_time": "17:00"},
			{"day_of_week": "tuesday", "is_open": true, "open_time": "08:00", "close_time": "17:00"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Replacing with a single day leaves exactly that day.
	w = env.request(http.MethodPut, "/api/profiles?action=business-hours", providerToken, map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": "saturday", "is_open": true, "is_24_hours": true},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var hours []models.BusinessHour
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).Find(&hours).Error)
	require.Len(t, hours, 1)
	assert.Equal(t, "saturday", hours[0].DayOfWeek)
	assert.True(t, hours[0].Is24Hours)
}

func TestBusinessHoursRejectsBadDay(t *testing.T) {
	env := newTestEnv(t)
	_, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPut, "/api/profiles?action=business-hours", providerToken, map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": "caturday", "is_open": true},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceAreasAndWorkExperience(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/profiles?action=service-areas", providerToken, map[string]interface{}{
		"area_name":  "North Side",
		"city":       "Springfield",
		"is_primary": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodPost, "/api/profiles?action=work-experience", providerToken, map[string]interface{}{
		"company_name": "FixIt GmbH",
		"position":     "Senior technician",
		"is_current":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodGet,
		fmt.Sprintf("/api/profiles?action=service-areas&user_id=%d", provider.ID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["service_areas"], 1)

	w = env.request(http.MethodGet,
		fmt.Sprintf("/api/profiles?action=work-experience&user_id=%d", provider.ID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["work_experience"], 1)
}

func TestGetProfileIncludesProviderCounts(t *testing.T) {
	env := newTestEnv(t)
	provider, providerToken := env.createUser(models.RoleProvider)
	env.createService(provider.ID, "Counted")

	w := env.request(http.MethodGet, "/api/profiles?action=profile", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	counts := body["counts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["services"])
}
