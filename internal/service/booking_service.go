package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/pkg/events"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

// maxGuideLookups bounds concurrent profile reads when listing a tourist's bookings.
const maxGuideLookups = 4

type BookingService interface {
	RequestBooking(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error)
	SetStatus(ctx context.Context, id int64, status string) (*domain.Booking, error)
	CompleteTrip(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error)
	ListForTourist(ctx context.Context, email string) ([]domain.TouristBooking, error)
	ListForGuide(ctx context.Context, email string) ([]domain.Booking, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	guides   repository.GuideRepository
	events   events.Publisher
}

func NewBookingService(
	bookings repository.BookingRepository,
	guides repository.GuideRepository,
	publisher events.Publisher,
) BookingService {
	return &bookingService{
		bookings: bookings,
		guides:   guides,
		events:   publisher,
	}
}

// RequestBooking never checks for overlapping bookings; guides decide.
func (s *bookingService) RequestBooking(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookings.Create(ctx, req.ToBooking())
	if err != nil {
		return nil, storageErr("create booking", err)
	}

	logger.InfoContext(ctx, "Booking requested", "booking_id", booking.ID, "type", booking.Type)
	s.publish(ctx, events.BookingRequested, events.BookingRequestedEvent{
		BookingID:    booking.ID,
		TouristEmail: booking.TouristEmail,
		GuideEmail:   booking.GuideEmail,
		SpotName:     booking.SpotName,
		Date:         booking.Date,
		Type:         string(booking.Type),
		CreatedAt:    booking.CreatedAt,
	})
	return booking, nil
}

// SetStatus records a guide's decision on a Pending request.
func (s *bookingService) SetStatus(ctx context.Context, id int64, status string) (*domain.Booking, error) {
	target, ok := domain.ParseDecision(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	booking, err := s.bookings.Transition(ctx, id, domain.BookingPending, target)
	if err != nil {
		return nil, storageErr("update booking status", err)
	}
	if booking == nil {
		return nil, s.transitionFailure(ctx, id, target)
	}

	logger.InfoContext(ctx, "Booking status changed", "booking_id", id, "status", target)
	s.publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID:    booking.ID,
		TouristEmail: booking.TouristEmail,
		GuideEmail:   booking.GuideEmail,
		SpotName:     booking.SpotName,
		Status:       string(booking.Status),
		ChangedAt:    booking.UpdatedAt,
	})
	return booking, nil
}

func (s *bookingService) CompleteTrip(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, domain.ErrInvalidRating
	}

	booking, err := s.bookings.Complete(ctx, id, rating, review)
	if err != nil {
		return nil, storageErr("complete booking", err)
	}
	if booking == nil {
		return nil, s.transitionFailure(ctx, id, domain.BookingCompleted)
	}

	if err := s.guides.AddRating(ctx, booking.GuideEmail, rating); err != nil {
		logger.ErrorContext(ctx, "Failed to update guide rating", "booking_id", id, "error", err)
	}

	logger.InfoContext(ctx, "Trip completed", "booking_id", id, "rating", rating)
	s.publish(ctx, events.BookingCompleted, events.BookingCompletedEvent{
		BookingID:    booking.ID,
		TouristEmail: booking.TouristEmail,
		GuideEmail:   booking.GuideEmail,
		Rating:       rating,
		CompletedAt:  booking.UpdatedAt,
	})
	return booking, nil
}

// transitionFailure tells a missing booking apart from one in the wrong state.
func (s *bookingService) transitionFailure(ctx context.Context, id int64, target domain.BookingStatus) error {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return storageErr("load booking", err)
	}
	if current == nil {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.Status, target)
}

func (s *bookingService) ListForTourist(ctx context.Context, email string) ([]domain.TouristBooking, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}

	bookings, err := s.bookings.ListByTourist(ctx, email)
	if err != nil {
		return nil, storageErr("list tourist bookings", err)
	}

	profiles, err := s.loadGuides(ctx, bookings)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TouristBooking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, joinGuide(b, profiles[b.GuideEmail]))
	}
	return out, nil
}

func (s *bookingService) loadGuides(ctx context.Context, bookings []domain.Booking) (map[string]*domain.GuideProfile, error) {
	var (
		mu       sync.Mutex
		profiles = make(map[string]*domain.GuideProfile)
		seen     = make(map[string]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxGuideLookups)
	for _, b := range bookings {
		email := b.GuideEmail
		if seen[email] {
			continue
		}
		seen[email] = true

		g.Go(func() error {
			profile, err := s.guides.FindByEmail(gctx, email)
			if err != nil {
				return storageErr("load guide profile", err)
			}
			mu.Lock()
			profiles[email] = profile
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// joinGuide hides the guide's contact details until the request is accepted.
func joinGuide(b domain.Booking, guide *domain.GuideProfile) domain.TouristBooking {
	tb := domain.TouristBooking{
		Booking:      b,
		GuideName:    domain.UnknownGuideName,
		GuideContact: domain.HiddenContact,
	}
	if guide != nil && guide.Name != "" {
		tb.GuideName = guide.Name
	}
	if b.Status.DisclosesContact() {
		if guide != nil {
			tb.GuideContact = guide.Contact()
		} else {
			tb.GuideContact = b.GuideEmail
		}
	}
	return tb
}

func (s *bookingService) ListForGuide(ctx context.Context, email string) ([]domain.Booking, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}

	bookings, err := s.bookings.ListByGuide(ctx, email, domain.BookingOffline)
	if err != nil {
		return nil, storageErr("list guide bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) publish(ctx context.Context, subject string, event any) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.events.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
