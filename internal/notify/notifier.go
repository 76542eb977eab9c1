package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trailbliss/trailbliss-api/internal/mailer"
	"github.com/trailbliss/trailbliss-api/pkg/events"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

const queueGroup = "trailbliss-notify"

// Notifier emails guides and tourists when bookings change.
type Notifier struct {
	mailer mailer.Service
}

func New(m mailer.Service) *Notifier {
	return &Notifier{mailer: m}
}

// Start subscribes to booking events. Handlers run on the subscriber's goroutines.
func (n *Notifier) Start(sub events.Subscriber) error {
	if err := sub.QueueSubscribe(events.BookingRequested, queueGroup, n.HandleBookingRequested); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.BookingRequested, err)
	}
	if err := sub.QueueSubscribe(events.BookingStatusChanged, queueGroup, n.HandleStatusChanged); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.BookingStatusChanged, err)
	}
	return nil
}

func (n *Notifier) HandleBookingRequested(msg *events.Message) {
	var ev events.BookingRequestedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Malformed booking event", "subject", msg.Subject, "error", err)
		return
	}

	subject := "New booking request on Trail Bliss"
	body := fmt.Sprintf("%s requested a %s trip to %s on %s. Log in to accept or reject it.",
		ev.TouristEmail, ev.Type, ev.SpotName, ev.Date)
	n.send(ev.GuideEmail, subject, body, ev.BookingID)
}

func (n *Notifier) HandleStatusChanged(msg *events.Message) {
	var ev events.BookingStatusChangedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Malformed booking event", "subject", msg.Subject, "error", err)
		return
	}

	subject := fmt.Sprintf("Your Trail Bliss booking was %s", ev.Status)
	body := fmt.Sprintf("Your booking for %s has been %s by your guide.", ev.SpotName, ev.Status)
	n.send(ev.TouristEmail, subject, body, ev.BookingID)
}

func (n *Notifier) send(to, subject, body string, bookingID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := n.mailer.SendNotification(ctx, to, subject, body); err != nil {
		logger.Error("Failed to send booking notification", "booking_id", bookingID, "error", err)
		return
	}
	logger.Info("Booking notification sent", "booking_id", bookingID)
}
