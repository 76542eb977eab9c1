package handlers

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type BookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type BookingStatusRequest struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// CompleteTripRequest accepts bookingId and rating as JSON numbers or numeric strings.
type CompleteTripRequest struct {
	BookingID json.Number `json:"bookingId"`
	Rating    json.Number `json:"rating"`
	Review    string      `json:"review"`
}

func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Failed to create booking")
		return
	}

	booking, err := h.bookings.RequestBooking(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create booking")
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{Success: true, Message: "Booking Request Sent!", ID: booking.ID})
}

func (h *Handlers) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req BookingStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Failed to update booking")
		return
	}

	id, ok := parseWhole(req.ID)
	if !ok || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	if _, err := h.bookings.SetStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, r, err, "Failed to update booking")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handlers) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	var req CompleteTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Failed to complete trip")
		return
	}

	id, ok := parseWhole(req.BookingID)
	if !ok || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}
	rating, ok := parseWhole(req.Rating)
	if !ok || rating < domain.MinRating || rating > domain.MaxRating {
		writeServiceError(w, r, domain.ErrInvalidRating, "Failed to complete trip")
		return
	}

	if _, err := h.bookings.CompleteTrip(r.Context(), id, int(rating), req.Review); err != nil {
		writeServiceError(w, r, err, "Failed to complete trip")
		return
	}
	writeSuccess(w, "Trip completed and feedback saved!")
}

func (h *Handlers) TouristBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForTourist(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch bookings")
		return
	}
	if bookings == nil {
		bookings = []domain.TouristBooking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) GuideBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForGuide(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch bookings")
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// parseWhole accepts integral numbers, including forms like "4.0".
func parseWhole(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := n.Int64(); err == nil {
		return v, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int64(f), true
}
