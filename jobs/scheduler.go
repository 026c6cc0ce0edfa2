package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"quickserve-server/models"
	"quickserve-server/utils"
)

// Scheduler runs the background maintenance jobs: sweeping expired
// location shares and sending booking reminder emails.
type Scheduler struct {
	db     *gorm.DB
	mailer *utils.Mailer
	cron   *cron.Cron
}

func NewScheduler(db *gorm.DB, mailer *utils.Mailer) *Scheduler {
	return &Scheduler{
		db:     db,
		mailer: mailer,
		cron:   cron.New(),
	}
}

// Start registers and launches the jobs. Call Stop on shutdown.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/5 * * * *", s.ExpireLocationShares); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("* * * * *", s.SendBookingReminders); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("background jobs started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ExpireLocationShares deactivates shares past their expiry. Readers
// already filter on expires_at, so this is housekeeping that keeps
// the active set small.
func (s *Scheduler) ExpireLocationShares() {
	result := s.db.Model(&models.UserLocation{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)
	if result.Error != nil {
		log.Printf("location share sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("deactivated %d expired location shares", result.RowsAffected)
	}
}

// SendBookingReminders emails customers whose confirmed booking starts
// in about an hour. The job runs every minute over a one-minute-wide
// window 60 minutes out, so each booking matches exactly once and no
// sent flag is needed.
func (s *Scheduler) SendBookingReminders() {
	if !s.mailer.Enabled() {
		return
	}

	windowStart := time.Now().Add(60 * time.Minute).Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)

	var bookings []models.Booking
	err := s.db.Preload("Customer").Preload("Service").
		Where("status = ?", models.BookingConfirmed).
		Where("booking_date IN ?", []string{
			windowStart.Format("2006-01-02"),
			windowEnd.Format("2006-01-02"),
		}).
		Find(&bookings).Error
	if err != nil {
		log.Printf("booking reminder query failed: %v", err)
		return
	}

	for _, booking := range bookings {
		slot, err := time.ParseInLocation("2006-01-02 15:04", booking.BookingDate+" "+booking.BookingTime, time.Local)
		if err != nil {
			continue
		}
		if slot.Before(windowStart) || !slot.Before(windowEnd) {
			continue
		}

		subject := "Reminder: upcoming booking"
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your booking for <b>%s</b> starts at %s today.</p>",
			booking.Customer.FullName, booking.Service.Title, booking.BookingTime,
		)
		if err := s.mailer.Send(booking.Customer.Email, subject, body); err != nil {
			log.Printf("booking reminder to %s failed: %v", booking.Customer.Email, err)
		}
	}
}
