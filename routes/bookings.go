package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

var (
	bookingDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	bookingTimeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// BookingHandler serves the booking lifecycle under /api/bookings.
type BookingHandler struct {
	db *gorm.DB
}

func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{db: db}
}

func RegisterBookingRoutes(rg *gin.RouterGroup, h *BookingHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.PUT("", h.handlePut)
}

func (h *BookingHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "list", "":
		h.list(c)
	case "booking":
		h.get(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *BookingHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "create", "":
		h.create(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *BookingHandler) handlePut(c *gin.Context) {
	switch c.Query("action") {
	case "update-status":
		h.updateStatus(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

// bookingView flattens the joined fields list and detail clients
// display alongside each booking.
type bookingView struct {
	models.Booking
	ServiceTitle    string `json:"service_title"`
	ServiceCategory string `json:"service_category"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	ProviderName    string `json:"provider_name"`
	ProviderPhone   string `json:"provider_phone"`
}

func (h *BookingHandler) toView(b models.Booking) bookingView {
	v := bookingView{
		Booking:         b,
		ServiceTitle:    b.Service.Title,
		ServiceCategory: b.Service.Category,
		CustomerName:    b.Customer.FullName,
		CustomerPhone:   b.Customer.Phone,
	}
	var provider models.User
	if err := h.db.First(&provider, b.ProviderID).Error; err == nil {
		v.ProviderName = provider.FullName
		v.ProviderPhone = provider.Phone
	}
	return v
}

// list returns the caller's bookings: as customer for customers, as
// provider for providers, both sides for admins.
func (h *BookingHandler) list(c *gin.Context) {
	user := middleware.CurrentUser(c)

	q := h.db.Model(&models.Booking{}).Preload("Service").Preload("Customer")
	switch {
	case user.IsAdmin():
		// admins see everything
	case user.IsProvider():
		q = q.Where("provider_id = ?", user.ID)
	default:
		q = q.Where("customer_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" && status != "all" {
		if !models.IsValidBookingStatus(models.BookingStatus(status)) {
			utils.BadRequest(c, "Invalid status filter")
			return
		}
		q = q.Where("status = ?", status)
	}

	var bookings []models.Booking
	err := q.Order("created_at DESC").Find(&bookings).Error
	if err != nil {
		utils.ServerError(c, "Failed to load bookings")
		return
	}

	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, h.toView(b))
	}

	utils.Success(c, "", gin.H{"bookings": views})
}

func (h *BookingHandler) get(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Booking ID is required")
		return
	}

	var booking models.Booking
	err = h.db.Preload("Service").Preload("Customer").First(&booking, id).Error
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Booking not found")
		return
	}

	if booking.CustomerID != user.ID && booking.ProviderID != user.ID && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "You do not have access to this booking")
		return
	}

	utils.Success(c, "", gin.H{"booking": h.toView(booking)})
}

type createBookingRequest struct {
	ServiceID   uint   `json:"service_id"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	Notes       string `json:"notes"`
}

func (h *BookingHandler) create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ServiceID == 0 {
		utils.BadRequest(c, "Service ID, booking date and booking time are required")
		return
	}

	if !bookingDateRe.MatchString(req.BookingDate) || !bookingTimeRe.MatchString(req.BookingTime) {
		utils.BadRequest(c, "Booking date must be YYYY-MM-DD and booking time must be HH:MM")
		return
	}
	slot, err := time.ParseInLocation("2006-01-02 15:04", req.BookingDate+" "+req.BookingTime, time.Local)
	if err != nil {
		utils.BadRequest(c, "Invalid booking date or time")
		return
	}
	if slot.Before(time.Now()) {
		utils.BadRequest(c, "Cannot book a time in the past")
		return
	}

	var booking models.Booking
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var service models.Service
		if err := tx.First(&service, req.ServiceID).Error; err != nil {
			return errBookingRejected(http.StatusNotFound, "Service not found")
		}
		if !service.IsActive {
			return errBookingRejected(http.StatusBadRequest, "This service is not available for booking")
		}
		if service.ProviderID == user.ID {
			return errBookingRejected(http.StatusBadRequest, "You cannot book your own service")
		}

		var conflicts int64
		err := tx.Model(&models.Booking{}).
			Where("service_id = ? AND booking_date = ? AND booking_time = ?",
				service.ID, req.BookingDate, req.BookingTime).
			Where("status NOT IN ?", []models.BookingStatus{models.BookingCancelled, models.BookingCompleted}).
			Count(&conflicts).Error
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return errBookingRejected(http.StatusBadRequest, "This time slot is already booked")
		}

		if !service.OpenOn(slot.Weekday()) {
			return errBookingRejected(http.StatusBadRequest, "The provider is not available on this day")
		}
		if !service.WithinHours(req.BookingTime) {
			return errBookingRejected(http.StatusBadRequest,
				fmt.Sprintf("Bookings are only accepted between %s and %s",
					service.WorkingHours.Start, service.WorkingHours.End))
		}

		booking = models.Booking{
			CustomerID:  user.ID,
			ServiceID:   service.ID,
			ProviderID:  service.ProviderID,
			BookingDate: req.BookingDate,
			BookingTime: req.BookingTime,
			Status:      models.BookingPending,
			Notes:       req.Notes,
			TotalAmount: service.Price,
		}
		if err := tx.Create(&booking).Error; err != nil {
			// Two requests can pass the conflict count concurrently;
			// the open-slot unique index decides the loser.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errBookingRejected(http.StatusBadRequest, "This time slot is already booked")
			}
			return err
		}

		notification := models.Notification{
			UserID:    service.ProviderID,
			RelatedID: &booking.ID,
			Type:      models.NotificationBooking,
			Title:     "New booking request",
			Message:   fmt.Sprintf("%s requested %s on %s at %s", user.FullName, service.Title, req.BookingDate, req.BookingTime),
		}
		return tx.Create(&notification).Error
	})

	if txErr != nil {
		var rejected *bookingRejectedError
		if errors.As(txErr, &rejected) {
			utils.Error(c, rejected.status, rejected.message)
			return
		}
		utils.ServerError(c, "Failed to create booking")
		return
	}

	utils.Created(c, "Booking created successfully", gin.H{"booking": booking})
}

type updateStatusRequest struct {
	Status models.BookingStatus `json:"status"`
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "Booking ID is required")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		utils.BadRequest(c, "Status is required")
		return
	}
	if !models.IsValidBookingStatus(req.Status) {
		utils.BadRequest(c, "Invalid status")
		return
	}

	var booking models.Booking
	if err := h.db.Preload("Service").First(&booking, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "Booking not found")
		return
	}

	if !canSetStatus(user, &booking, req.Status) {
		utils.Error(c, http.StatusForbidden, "You are not allowed to set this status")
		return
	}

	if !booking.CanTransitionTo(req.Status) {
		utils.BadRequest(c, fmt.Sprintf("Cannot change status from %s to %s", booking.Status, req.Status))
		return
	}

	previous := booking.Status
	booking.Status = req.Status
	if err := h.db.Save(&booking).Error; err != nil {
		utils.ServerError(c, "Failed to update booking")
		return
	}

	h.notifyStatusChange(user, &booking, previous)

	utils.Success(c, "Booking status updated", gin.H{"booking": booking})
}

// canSetStatus encodes who may move a booking where: customers can
// only cancel their own bookings, providers manage the rest of the
// lifecycle on theirs, admins can do either.
func canSetStatus(user *models.User, booking *models.Booking, next models.BookingStatus) bool {
	if user.IsAdmin() {
		return true
	}
	if booking.CustomerID == user.ID {
		return next == models.BookingCancelled
	}
	if booking.ProviderID == user.ID {
		return true
	}
	return false
}

// notifyStatusChange tells the party who did not make the change.
func (h *BookingHandler) notifyStatusChange(actor *models.User, booking *models.Booking, previous models.BookingStatus) {
	recipient := booking.CustomerID
	if actor.ID == booking.CustomerID {
		recipient = booking.ProviderID
	}

	notification := models.Notification{
		UserID:  recipient,
		Type:    models.NotificationBooking,
		Title:   "Booking " + string(booking.Status),
		Message: fmt.Sprintf("Booking for %s on %s at %s moved from %s to %s", booking.Service.Title, booking.BookingDate, booking.BookingTime, previous, booking.Status),
	}
	if err := h.db.Create(&notification).Error; err != nil {
		log.Printf("failed to create booking notification: %v", err)
	}
}

// bookingRejectedError carries a client-facing rejection out of the
// booking transaction so it rolls back and maps to the right status.
type bookingRejectedError struct {
	status  int
	message string
}

func (e *bookingRejectedError) Error() string {
	return e.message
}

func errBookingRejected(status int, message string) error {
	return &bookingRejectedError{status: status, message: message}
}
