package routes

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickserve-server/models"
)

func (e *testEnv) createConversation(customerID, providerID uint) *models.Conversation {
	e.t.Helper()

	conv := models.Conversation{
		CustomerID:   customerID,
		ProviderID:   providerID,
		RoomName:     fmt.Sprintf("chat_%d_%d", customerID, providerID),
		LastActivity: time.Now(),
		IsActive:     true,
	}
	require.NoError(e.t, e.db.Create(&conv).Error)
	return &conv
}

func TestCreateRoomGetOrCreate(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/chat?action=create-room", customerToken, map[string]interface{}{
		"other_user_id": provider.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["created"])

	// Same key again returns the existing conversation.
	w = env.request(http.MethodPost, "/api/chat?action=create-room", customerToken, map[string]interface{}{
		"other_user_id": provider.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["created"])

	var count int64
	env.db.Model(&models.Conversation{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateRoomDistinctPerService(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)
	service := env.createService(provider.ID, "Drain unblocking")

	w := env.request(http.MethodPost, "/api/chat?action=create-room", customerToken, map[string]interface{}{
		"other_user_id": provider.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A service-scoped conversation is a different key.
	w = env.request(http.MethodPost, "/api/chat?action=create-room", customerToken, map[string]interface{}{
		"other_user_id": provider.ID,
		"service_id":    service.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	env.db.Model(&models.Conversation{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestCreateRoomRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)

	w := env.request(http.MethodPost, "/api/chat?action=create-room", customerToken, map[string]interface{}{
		"other_user_id": customer.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageAndNotification(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	w := env.request(http.MethodPost, "/api/chat?action=send-message", customerToken, map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "Hello, is the slot still free?",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var message models.Message
	require.NoError(t, env.db.First(&message).Error)
	assert.Equal(t, customer.ID, message.SenderID)
	assert.Equal(t, provider.ID, message.ReceiverID)
	assert.False(t, message.IsRead)

	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&notification).Error)
	assert.Equal(t, models.NotificationMessage, notification.Type)
	assert.Equal(t, "New message", notification.Title)
	assert.True(t, strings.HasPrefix(notification.Message, customer.FullName+": "))
}

func TestSendMessageTruncatesNotificationPreview(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	long := strings.Repeat("a", 80)
	w := env.request(http.MethodPost, "/api/chat?action=send-message", customerToken, map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         long,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&notification).Error)
	assert.Equal(t, customer.FullName+": "+strings.Repeat("a", 50), notification.Message)
}

func TestSendMessageOutsiderRejected(t *testing.T) {
	env := newTestEnv(t)
	customer, _ := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)
	_, outsiderToken := env.createUser(models.RoleCustomer)
	conv := env.createConversation(customer.ID, provider.ID)

	w := env.request(http.MethodPost, "/api/chat?action=send-message", outsiderToken, map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "let me in",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMessagesOrderingAndSinceID(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, providerToken := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	for i := 1; i <= 3; i++ {
		token := customerToken
		if i%2 == 0 {
			token = providerToken
		}
		w := env.request(http.MethodPost, "/api/chat?action=send-message", token, map[string]interface{}{
			"conversation_id": conv.ID,
			"content":         fmt.Sprintf("message %d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.request(http.MethodGet, fmt.Sprintf("/api/chat?action=messages&conversation_id=%d", conv.ID), customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 3)

	// Oldest first.
	first := messages[0].(map[string]interface{})
	last := messages[2].(map[string]interface{})
	assert.Equal(t, "message 1", first["content"])
	assert.Equal(t, "message 3", last["content"])

	sinceID := uint(first["id"].(float64))
	w = env.request(http.MethodGet,
		fmt.Sprintf("/api/chat?action=messages&conversation_id=%d&since_id=%d", conv.ID, sinceID),
		customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decodeBody(t, w)["messages"].([]interface{})
	require.Len(t, fresh, 2)
	assert.Equal(t, "message 2", fresh[0].(map[string]interface{})["content"])
}

func TestMarkReadIdempotent(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, providerToken := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	for i := 0; i < 2; i++ {
		w := env.request(http.MethodPost, "/api/chat?action=send-message", customerToken, map[string]interface{}{
			"conversation_id": conv.ID,
			"content":         "ping",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	url := fmt.Sprintf("/api/chat?action=mark-read&conversation_id=%d", conv.ID)

	w := env.request(http.MethodPut, url, providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeBody(t, w)["updated"])

	// Second call finds nothing left to flip.
	w = env.request(http.MethodPut, url, providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeBody(t, w)["updated"])
}

func TestUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, providerToken := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	w := env.request(http.MethodPost, "/api/chat?action=send-message", customerToken, map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "hello",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodGet, "/api/chat?action=unread-count", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["unread_messages"])
	assert.EqualValues(t, 1, body["unread_notifications"])
}

func TestShareAndReadLiveLocation(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	_, providerToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/chat?action=share-location", customerToken, map[string]interface{}{
		"latitude":  48.2082,
		"longitude": 16.3738,
		"address":   "Stephansplatz",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodGet, fmt.Sprintf("/api/chat?action=live-location&user_id=%d", customer.ID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	location := body["location"].(map[string]interface{})
	assert.Equal(t, 48.2082, location["latitude"])
	assert.Equal(t, "Stephansplatz", location["address"])
}

func TestLiveLocationExpiredIsNoData(t *testing.T) {
	env := newTestEnv(t)
	customer, _ := env.createUser(models.RoleCustomer)
	_, providerToken := env.createUser(models.RoleProvider)

	expired := time.Now().Add(-time.Hour)
	location := models.UserLocation{
		UserID:    customer.ID,
		Latitude:  48.2,
		Longitude: 16.3,
		ExpiresAt: &expired,
		IsActive:  true,
	}
	require.NoError(t, env.db.Create(&location).Error)

	w := env.request(http.MethodGet, fmt.Sprintf("/api/chat?action=live-location&user_id=%d", customer.ID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["location"])
}

func TestLiveLocationScopedShare(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, providerToken := env.createUser(models.RoleProvider)
	_, outsiderToken := env.createUser(models.RoleProvider)

	w := env.request(http.MethodPost, "/api/chat?action=share-location", customerToken, map[string]interface{}{
		"latitude":            48.2,
		"longitude":           16.3,
		"shared_with_user_id": provider.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	url := fmt.Sprintf("/api/chat?action=live-location&user_id=%d", customer.ID)

	w = env.request(http.MethodGet, url, providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["location"])

	// Not addressed to this user, so nothing is visible.
	w = env.request(http.MethodGet, url, outsiderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody(t, w)["location"])
}

func TestShareLocationNotifiesConversation(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, _ := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	w := env.request(http.MethodPost, "/api/chat?action=share-location", customerToken, map[string]interface{}{
		"latitude":        48.2,
		"longitude":       16.3,
		"conversation_id": conv.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var message models.Message
	require.NoError(t, env.db.Where("conversation_id = ?", conv.ID).First(&message).Error)
	assert.Equal(t, models.MessageLocation, message.MessageType)

	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", provider.ID).First(&notification).Error)
	assert.Equal(t, "New location shared", notification.Title)
	assert.Equal(t, customer.FullName+" shared their location", notification.Message)
}

func TestNotificationsMarkRead(t *testing.T) {
	env := newTestEnv(t)
	customer, customerToken := env.createUser(models.RoleCustomer)
	provider, providerToken := env.createUser(models.RoleProvider)
	conv := env.createConversation(customer.ID, provider.ID)

	w := env.request(http.MethodPost, "/api/chat?action=send-message", customerToken, map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodGet, "/api/chat?action=notifications&unread=true", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notifications := decodeBody(t, w)["notifications"].([]interface{})
	require.Len(t, notifications, 1)

	w = env.request(http.MethodPut, "/api/chat?action=update-notification", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(http.MethodGet, "/api/chat?action=notifications&unread=true", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["notifications"], 0)
}
