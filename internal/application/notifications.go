package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/campus-portal/internal/availability"
)

// Notification subjects published after successful state changes.
const (
	SubjectBookingCreated  = "portal.bookings.created"
	SubjectBookingApproved = "portal.bookings.approved"
	SubjectBookingRejected = "portal.bookings.rejected"
	SubjectEventCreated    = "portal.events.created"
	SubjectEventDeleted    = "portal.events.deleted"
	SubjectEventsPurged    = "portal.events.purged"
)

// Publisher delivers notifications to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// BookingNotification is the payload for booking subjects.
type BookingNotification struct {
	BookingID string              `json:"booking_id"`
	RoomID    string              `json:"room_id"`
	UserID    string              `json:"user_id"`
	Status    availability.Status `json:"status"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
}

// EventNotification is the payload for single event subjects.
type EventNotification struct {
	EventID  string        `json:"event_id"`
	Title    string        `json:"title"`
	Category EventCategory `json:"category"`
	Date     time.Time     `json:"date"`
}

// PurgeNotification is the payload for SubjectEventsPurged.
type PurgeNotification struct {
	Matched int       `json:"matched"`
	Cutoff  time.Time `json:"cutoff"`
}

func newBookingNotification(b Booking) BookingNotification {
	return BookingNotification{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		UserID:    b.UserID,
		Status:    b.Status,
		Start:     b.Start,
		End:       b.End,
	}
}

func newEventNotification(e Event) EventNotification {
	return EventNotification{EventID: e.ID, Title: e.Title, Category: e.Category, Date: e.Date}
}

// publish sends a notification and logs failures. Delivery problems never
// fail the operation that produced the notification.
func publish(ctx context.Context, publisher Publisher, logger *slog.Logger, subject string, payload any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "failed to publish notification", "subject", subject, "error", err)
	}
}
