package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quickserve-server/config"
	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

const messagesPerPage = 50

// ChatHandler serves conversations, messages, live location and
// notifications under /api/chat. Clients poll; nothing is pushed.
type ChatHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewChatHandler(db *gorm.DB, cfg *config.Config) *ChatHandler {
	return &ChatHandler{db: db, cfg: cfg}
}

func RegisterChatRoutes(rg *gin.RouterGroup, h *ChatHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.PUT("", h.handlePut)
}

func (h *ChatHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "conversations":
		h.conversations(c)
	case "messages":
		h.messages(c)
	case "unread-count":
		h.unreadCount(c)
	case "live-location":
		h.liveLocation(c)
	case "notifications":
		h.notifications(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ChatHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "send-message":
		h.sendMessage(c)
	case "create-room":
		h.createRoom(c)
	case "share-location":
		h.shareLocation(c)
	case "update-location":
		h.updateLocation(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *ChatHandler) handlePut(c *gin.Context) {
	switch c.Query("action") {
	case "mark-read":
		h.markRead(c)
	case "update-notification":
		h.updateNotification(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

// conversationView is a conversation row plus the display fields the
// inbox needs: the counterpart, the newest message and unread count.
type conversationView struct {
	models.Conversation
	OtherUserID     uint    `json:"other_user_id"`
	OtherUserName   string  `json:"other_user_name"`
	OtherUserRole   string  `json:"other_user_role"`
	OtherUserAvatar string  `json:"other_user_avatar"`
	LastMessage     *string `json:"last_message"`
	LastMessageType string  `json:"last_message_type"`
	UnreadCount     int64   `json:"unread_count"`
}

func (h *ChatHandler) conversations(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var conversations []models.Conversation
	err := h.db.Preload("Customer").Preload("Provider").
		Where("is_active = ?", true).
		Where("customer_id = ? OR provider_id = ?", user.ID, user.ID).
		Order("last_activity DESC").
		Find(&conversations).Error
	if err != nil {
		utils.ServerError(c, "Failed to load conversations")
		return
	}

	views := make([]conversationView, 0, len(conversations))
	for _, conv := range conversations {
		other := conv.Provider
		if conv.ProviderID == user.ID {
			other = conv.Customer
		}

		view := conversationView{
			Conversation:    conv,
			OtherUserID:     other.ID,
			OtherUserName:   other.FullName,
			OtherUserRole:   other.Role,
			OtherUserAvatar: other.Avatar,
		}

		var last models.Message
		err := h.db.Where("conversation_id = ?", conv.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		if err == nil {
			content := last.Content
			if last.MessageType == models.MessageLocation {
				content = "Shared a location"
			}
			view.LastMessage = &content
			view.LastMessageType = string(last.MessageType)
		}

		h.db.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conv.ID, user.ID, false).
			Count(&view.UnreadCount)

		views = append(views, view)
	}

	utils.Success(c, "", gin.H{"conversations": views})
}

// messageView decorates a message with its sender's display fields.
type messageView struct {
	models.Message
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar"`
}

func toMessageViews(messages []models.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			Message:      m,
			SenderName:   m.Sender.FullName,
			SenderAvatar: m.Sender.Avatar,
		})
	}
	return views
}

// messages returns a conversation page oldest-first. With since_id it
// instead returns everything newer than that id, which is the polling
// path: clients call it on an interval with the last id they have.
func (h *ChatHandler) messages(c *gin.Context) {
	user := middleware.CurrentUser(c)

	conv, ok := h.loadConversation(c, user)
	if !ok {
		return
	}

	if sinceParam := c.Query("since_id"); sinceParam != "" {
		sinceID, err := strconv.Atoi(sinceParam)
		if err != nil || sinceID < 0 {
			utils.BadRequest(c, "Invalid since_id")
			return
		}

		var fresh []models.Message
		err = h.db.Preload("Sender").
			Where("conversation_id = ? AND id > ?", conv.ID, sinceID).
			Order("created_at ASC, id ASC").
			Find(&fresh).Error
		if err != nil {
			utils.ServerError(c, "Failed to load messages")
			return
		}

		utils.Success(c, "", gin.H{"messages": toMessageViews(fresh)})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	// Fetch newest-first so page 1 is the latest window, then reverse
	// so the client renders oldest-first.
	var messages []models.Message
	err := h.db.Preload("Sender").
		Where("conversation_id = ?", conv.ID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * messagesPerPage).
		Limit(messagesPerPage).
		Find(&messages).Error
	if err != nil {
		utils.ServerError(c, "Failed to load messages")
		return
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	utils.Success(c, "", gin.H{
		"messages": toMessageViews(messages),
		"page":     page,
		"limit":    messagesPerPage,
	})
}

type sendMessageRequest struct {
	ConversationID  uint               `json:"conversation_id"`
	MessageType     models.MessageType `json:"message_type"`
	Content         string             `json:"content"`
	Latitude        *float64           `json:"latitude"`
	Longitude       *float64           `json:"longitude"`
	LocationAddress string             `json:"location_address"`
	AttachmentURL   string             `json:"attachment_url"`
}

func (h *ChatHandler) sendMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConversationID == 0 {
		utils.BadRequest(c, "Conversation ID is required")
		return
	}

	if req.MessageType == "" {
		req.MessageType = models.MessageText
	}
	switch req.MessageType {
	case models.MessageText:
		if req.Content == "" {
			utils.BadRequest(c, "Message content is required")
			return
		}
	case models.MessageLocation:
		if req.Latitude == nil || req.Longitude == nil {
			utils.BadRequest(c, "Latitude and longitude are required for location messages")
			return
		}
	case models.MessageImage, models.MessageFile:
		if req.AttachmentURL == "" {
			utils.BadRequest(c, "Attachment URL is required")
			return
		}
	default:
		utils.BadRequest(c, "Invalid message type")
		return
	}

	var conv models.Conversation
	if err := h.db.First(&conv, req.ConversationID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Conversation not found")
		return
	}
	if !conv.Participant(user.ID) {
		utils.Error(c, http.StatusForbidden, "You are not part of this conversation")
		return
	}

	message := models.Message{
		ConversationID:  conv.ID,
		SenderID:        user.ID,
		ReceiverID:      conv.OtherParty(user.ID),
		MessageType:     req.MessageType,
		Content:         req.Content,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		LocationAddress: req.LocationAddress,
		AttachmentURL:   req.AttachmentURL,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Update("last_activity", time.Now()).Error
	})
	if err != nil {
		utils.ServerError(c, "Failed to send message")
		return
	}

	h.notifyNewMessage(user, &message)

	h.db.Preload("Sender").First(&message, message.ID)
	utils.Created(c, "Message sent", gin.H{
		"message_data": messageView{
			Message:      message,
			SenderName:   message.Sender.FullName,
			SenderAvatar: message.Sender.Avatar,
		},
	})
}

// notifyNewMessage records the fire-and-forget notification for the
// receiver: sender name plus at most the first 50 characters of the
// content, or a fixed string for location shares.
func (h *ChatHandler) notifyNewMessage(sender *models.User, message *models.Message) {
	title := "New message"
	body := sender.FullName + ": " + truncateRunes(message.Content, 50)
	if message.MessageType == models.MessageLocation {
		title = "New location shared"
		body = sender.FullName + " shared their location"
	}

	notification := models.Notification{
		UserID:    message.ReceiverID,
		Type:      models.NotificationMessage,
		Title:     title,
		Message:   body,
		RelatedID: &message.ID,
	}
	if err := h.db.Create(&notification).Error; err != nil {
		log.Printf("failed to create message notification: %v", err)
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

type createRoomRequest struct {
	OtherUserID uint  `json:"other_user_id"`
	ServiceID   *uint `json:"service_id"`
	BookingID   *uint `json:"booking_id"`
}

// createRoom is get-or-create on the (customer, provider, service)
// key. The storage-level unique index breaks ties when two first
// contacts race; the loser fetches the winner's row.
func (h *ChatHandler) createRoom(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OtherUserID == 0 {
		utils.BadRequest(c, "Other user ID is required")
		return
	}
	if req.OtherUserID == user.ID {
		utils.BadRequest(c, "Cannot start a conversation with yourself")
		return
	}

	var other models.User
	if err := h.db.First(&other, req.OtherUserID).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}

	customerID, providerID, ok := conversationParties(user, &other)
	if !ok {
		utils.BadRequest(c, "Conversations connect a customer and a provider")
		return
	}

	keyScope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("customer_id = ? AND provider_id = ?", customerID, providerID)
		if req.ServiceID != nil {
			return q.Where("service_id = ?", *req.ServiceID)
		}
		return q.Where("service_id IS NULL")
	}

	var conv models.Conversation
	err := keyScope(h.db).First(&conv).Error
	if err == nil {
		utils.Success(c, "Conversation already exists", gin.H{"conversation": conv, "created": false})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ServerError(c, "Failed to open conversation")
		return
	}

	conv = models.Conversation{
		CustomerID:   customerID,
		ProviderID:   providerID,
		ServiceID:    req.ServiceID,
		BookingID:    req.BookingID,
		RoomName:     fmt.Sprintf("chat_%d_%d", customerID, providerID),
		LastActivity: time.Now(),
		IsActive:     true,
	}
	if err := h.db.Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := keyScope(h.db).First(&conv).Error; err != nil {
				utils.ServerError(c, "Failed to open conversation")
				return
			}
			utils.Success(c, "Conversation already exists", gin.H{"conversation": conv, "created": false})
			return
		}
		utils.ServerError(c, "Failed to open conversation")
		return
	}

	utils.Created(c, "Conversation created", gin.H{"conversation": conv, "created": true})
}

// conversationParties orients two users into the (customer, provider)
// pair. Admins take the side the other user leaves open.
func conversationParties(a, b *models.User) (customerID, providerID uint, ok bool) {
	switch {
	case a.IsCustomer() && b.IsProvider():
		return a.ID, b.ID, true
	case a.IsProvider() && b.IsCustomer():
		return b.ID, a.ID, true
	case a.IsAdmin() && b.IsProvider():
		return a.ID, b.ID, true
	case a.IsAdmin() && b.IsCustomer():
		return b.ID, a.ID, true
	case b.IsAdmin() && a.IsProvider():
		return b.ID, a.ID, true
	case b.IsAdmin() && a.IsCustomer():
		return a.ID, b.ID, true
	default:
		return 0, 0, false
	}
}

// markRead flips every unread message addressed to the caller in one
// statement. Safe to repeat; a second call is a no-op.
func (h *ChatHandler) markRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	conv, ok := h.loadConversation(c, user)
	if !ok {
		return
	}

	result := h.db.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conv.ID, user.ID, false).
		Update("is_read", true)
	if result.Error != nil {
		utils.ServerError(c, "Failed to mark messages read")
		return
	}

	utils.Success(c, "Messages marked as read", gin.H{"updated": result.RowsAffected})
}

func (h *ChatHandler) unreadCount(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var messages int64
	h.db.Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", user.ID, false).
		Count(&messages)

	var notifications int64
	h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&notifications)

	utils.Success(c, "", gin.H{
		"unread_messages":      messages,
		"unread_notifications": notifications,
	})
}

type shareLocationRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Address          string   `json:"address"`
	Accuracy         *float64 `json:"accuracy"`
	SharedWithUserID *uint    `json:"shared_with_user_id"`
	ExpiresHours     *int     `json:"expires_hours"`
	ConversationID   *uint    `json:"conversation_id"`
}

// shareLocation starts a live share: a time-bounded location row plus,
// when a conversation is given, a location message in it.
func (h *ChatHandler) shareLocation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req shareLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		utils.BadRequest(c, "Latitude and longitude are required")
		return
	}

	hours := h.cfg.Location.DefaultShareHours
	if req.ExpiresHours != nil && *req.ExpiresHours > 0 {
		hours = *req.ExpiresHours
	}
	expiresAt := time.Now().Add(time.Duration(hours) * time.Hour)

	location := models.UserLocation{
		UserID:           user.ID,
		Latitude:         *req.Latitude,
		Longitude:        *req.Longitude,
		Address:          req.Address,
		Accuracy:         req.Accuracy,
		SharedWithUserID: req.SharedWithUserID,
		ExpiresAt:        &expiresAt,
		IsActive:         true,
	}

	if err := h.db.Create(&location).Error; err != nil {
		utils.ServerError(c, "Failed to share location")
		return
	}

	now := time.Now()
	h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"latitude":             *req.Latitude,
		"longitude":            *req.Longitude,
		"last_location_update": now,
	})

	if req.ConversationID != nil {
		var conv models.Conversation
		if err := h.db.First(&conv, *req.ConversationID).Error; err == nil && conv.Participant(user.ID) {
			message := models.Message{
				ConversationID:  conv.ID,
				SenderID:        user.ID,
				ReceiverID:      conv.OtherParty(user.ID),
				MessageType:     models.MessageLocation,
				Latitude:        req.Latitude,
				Longitude:       req.Longitude,
				LocationAddress: req.Address,
			}
			if err := h.db.Create(&message).Error; err == nil {
				h.db.Model(&conv).Update("last_activity", time.Now())
				h.notifyNewMessage(user, &message)
			}
		}
	}

	utils.Created(c, "Location shared", gin.H{"location": location})
}

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// updateLocation overwrites the caller's denormalized last-known
// position used for map pins. It is decoupled from the share history:
// ongoing shares are untouched.
func (h *ChatHandler) updateLocation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		utils.BadRequest(c, "Latitude and longitude are required")
		return
	}

	err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"latitude":             *req.Latitude,
		"longitude":            *req.Longitude,
		"last_location_update": time.Now(),
	}).Error
	if err != nil {
		utils.ServerError(c, "Failed to update location")
		return
	}

	utils.Success(c, "Location updated", nil)
}

// liveLocation returns the freshest unexpired share another user has
// made visible to the caller. No share is not an error: the client
// polls this and an empty result just means nothing to show.
func (h *ChatHandler) liveLocation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	targetID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil || targetID < 1 {
		utils.BadRequest(c, "User ID is required")
		return
	}

	var location models.UserLocation
	err = h.db.Where("user_id = ? AND is_active = ?", targetID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Where("shared_with_user_id IS NULL OR shared_with_user_id = ?", user.ID).
		Order("created_at DESC").
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Success(c, "No live location available", gin.H{"location": nil})
			return
		}
		utils.ServerError(c, "Failed to load location")
		return
	}

	utils.Success(c, "", gin.H{"location": location})
}

func (h *ChatHandler) notifications(c *gin.Context) {
	user := middleware.CurrentUser(c)

	q := h.db.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var notifications []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		utils.ServerError(c, "Failed to load notifications")
		return
	}

	utils.Success(c, "", gin.H{"notifications": notifications})
}

func (h *ChatHandler) updateNotification(c *gin.Context) {
	user := middleware.CurrentUser(c)

	// No id marks everything read, mirroring mark-read for messages.
	if idParam := c.Query("id"); idParam != "" {
		id, err := strconv.Atoi(idParam)
		if err != nil || id < 1 {
			utils.BadRequest(c, "Invalid notification ID")
			return
		}

		result := h.db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, user.ID).
			Update("is_read", true)
		if result.Error != nil {
			utils.ServerError(c, "Failed to update notification")
			return
		}
		if result.RowsAffected == 0 {
			utils.Error(c, http.StatusNotFound, "Notification not found")
			return
		}

		utils.Success(c, "Notification marked as read", nil)
		return
	}

	result := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)
	if result.Error != nil {
		utils.ServerError(c, "Failed to update notifications")
		return
	}

	utils.Success(c, "Notifications marked as read", gin.H{"updated": result.RowsAffected})
}

// loadConversation resolves ?conversation_id= and checks the caller
// is a participant, writing the error response itself on failure.
func (h *ChatHandler) loadConversation(c *gin.Context, user *models.User) (*models.Conversation, bool) {
	id, err := strconv.Atoi(c.Query("conversation_id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Conversation ID is required")
		return nil, false
	}

	var conv models.Conversation
	if err := h.db.First(&conv, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Conversation not found")
		return nil, false
	}
	if !conv.Participant(user.ID) && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "You are not part of this conversation")
		return nil, false
	}

	return &conv, true
}
