package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingAccepted  BookingStatus = "Accepted"
	BookingRejected  BookingStatus = "Rejected"
	BookingCompleted BookingStatus = "Completed"
)

// ParseDecision accepts the statuses a guide may set on a request.
func ParseDecision(s string) (BookingStatus, bool) {
	switch BookingStatus(strings.TrimSpace(s)) {
	case BookingAccepted:
		return BookingAccepted, true
	case BookingRejected:
		return BookingRejected, true
	default:
		return "", false
	}
}

// DisclosesContact reports whether the tourist may see the guide's contact details.
func (s BookingStatus) DisclosesContact() bool {
	return s == BookingAccepted || s == BookingCompleted
}

type BookingType string

const (
	BookingOnline  BookingType = "online"
	BookingOffline BookingType = "offline"
)

func ParseBookingType(s string) (BookingType, bool) {
	switch BookingType(strings.ToLower(strings.TrimSpace(s))) {
	case "", BookingOffline:
		return BookingOffline, true
	case BookingOnline:
		return BookingOnline, true
	default:
		return "", false
	}
}

const (
	MinRating = 1
	MaxRating = 5

	UnknownGuideName = "Unknown Guide"
	HiddenContact    = "Hidden until accepted"
)

type Booking struct {
	ID           int64         `json:"id"`
	TouristEmail string        `json:"touristEmail"`
	TouristPhone string        `json:"touristPhone"`
	GuideEmail   string        `json:"guideEmail"`
	SpotName     string        `json:"spotName"`
	Date         string        `json:"date"`
	Type         BookingType   `json:"type"`
	Status       BookingStatus `json:"status"`
	Rating       int           `json:"rating"`
	Review       string        `json:"review"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// TouristBooking is a booking joined with the guide's public details.
type TouristBooking struct {
	Booking
	GuideName    string `json:"guideName"`
	GuideContact string `json:"guideContact"`
}

type BookingRequest struct {
	TouristEmail string `json:"touristEmail"`
	TouristPhone string `json:"touristPhone"`
	GuideEmail   string `json:"guideEmail"`
	SpotName     string `json:"spotName"`
	Date         string `json:"date"`
	Type         string `json:"type"`
}

func (r *BookingRequest) Normalize() {
	r.TouristEmail = NormalizeEmail(r.TouristEmail)
	r.GuideEmail = NormalizeEmail(r.GuideEmail)
	r.TouristPhone = strings.TrimSpace(r.TouristPhone)
	r.SpotName = strings.TrimSpace(r.SpotName)
	r.Date = strings.TrimSpace(r.Date)
	r.Type = strings.TrimSpace(r.Type)
}

func (r *BookingRequest) Validate() error {
	if !IsValidEmail(r.TouristEmail) {
		return Invalid("valid touristEmail is required")
	}
	if !IsValidEmail(r.GuideEmail) {
		return Invalid("valid guideEmail is required")
	}
	if r.SpotName == "" {
		return Invalid("spotName is required")
	}
	if r.Date == "" {
		return Invalid("date is required")
	}
	if _, ok := ParseBookingType(r.Type); !ok {
		return Invalid("type must be online or offline")
	}
	return nil
}

// ToBooking builds a new Pending booking from a validated request.
func (r *BookingRequest) ToBooking() *Booking {
	typ, _ := ParseBookingType(r.Type)
	return &Booking{
		TouristEmail: r.TouristEmail,
		TouristPhone: r.TouristPhone,
		GuideEmail:   r.GuideEmail,
		SpotName:     r.SpotName,
		Date:         r.Date,
		Type:         typ,
		Status:       BookingPending,
	}
}
