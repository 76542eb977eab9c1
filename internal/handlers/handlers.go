package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/service"
	"github.com/trailbliss/trailbliss-api/pkg/auth"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
	mw "github.com/trailbliss/trailbliss-api/pkg/middleware"
)

// RateLimiter reports whether another request under key fits the window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type Services struct {
	Accounts     service.AccountService
	Verification service.VerificationService
	Spots        service.SpotService
	Guides       service.GuideService
	Bookings     service.BookingService
	Feedback     service.FeedbackService
}

type Handlers struct {
	accounts     service.AccountService
	verification service.VerificationService
	spots        service.SpotService
	guides       service.GuideService
	bookings     service.BookingService
	feedback     service.FeedbackService
	limiter      RateLimiter
	idempotency  mw.IdempotencyStore
	config       *config.Config
}

func New(svc Services, limiter RateLimiter, cfg *config.Config) *Handlers {
	return &Handlers{
		accounts:     svc.Accounts,
		verification: svc.Verification,
		spots:        svc.Spots,
		guides:       svc.Guides,
		bookings:     svc.Bookings,
		feedback:     svc.Feedback,
		limiter:      limiter,
		config:       cfg,
	}
}

// WithIdempotency lets POST /book honor an Idempotency-Key header.
func (h *Handlers) WithIdempotency(store mw.IdempotencyStore) *Handlers {
	h.idempotency = store
	return h
}

// Routes returns the API router, mounted under /api by the server.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.OptionalSession)

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.With(h.SendVerificationRateLimit).Post("/send-verification", h.SendVerification)
	r.Post("/verify-code", h.VerifyCode)

	r.Get("/spots", h.ListSpots)
	r.Post("/spots", h.CreateSpot)
	r.Delete("/spots/{id}", h.DeleteSpot)

	r.Post("/feedback", h.SubmitFeedback)
	r.Get("/view-feedback", h.ListFeedback)

	r.Get("/guides", h.ListGuides)
	r.Get("/guide-profile", h.GetGuideProfile)
	r.Post("/guide-profile", h.SaveGuideProfile)
	r.Get("/guide-bookings", h.GuideBookings)

	r.With(h.bookIdempotency).Post("/book", h.Book)
	r.Put("/booking-status", h.SetBookingStatus)
	r.Post("/complete-trip", h.CompleteTrip)
	r.Get("/tourist-bookings", h.TouristBookings)

	return r
}

// OptionalSession tags the request with the caller's email when a valid
// session token is presented. Requests without one pass through untouched.
func (h *Handlers) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
		if err != nil {
			logger.DebugContext(r.Context(), "Ignoring invalid session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), logger.UserEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) bookIdempotency(next http.Handler) http.Handler {
	if h.idempotency == nil {
		return next
	}
	ttl := h.config.Server.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return mw.Idempotency(h.idempotency, ttl)(next)
}

// SendVerificationRateLimit caps code issuance per client IP. Limiter errors
// let the request through.
func (h *Handlers) SendVerificationRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil || h.config.Auth.OTPRateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := "send-verification:ip:" + getClientIP(r, h.config.Server.TrustProxy)
		allowed, err := h.limiter.CheckRateLimit(r.Context(), key, h.config.Auth.OTPRateLimit, h.config.Auth.OTPRateWindow)
		if err != nil {
			logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP reads forwarding headers only when trustProxy is set, so a
// direct client cannot pick its own rate limit bucket.
func getClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteIP(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("malformed JSON body")
	}
	return nil
}

// writeServiceError maps a domain error to its status code. fallback is the
// message used for unexpected failures, which are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var roleErr *domain.RoleMismatchError
	switch {
	case errors.As(err, &roleErr):
		writeError(w, http.StatusForbidden, roleErr.Error())
	case errors.Is(err, domain.ErrDuplicateAccount):
		writeError(w, http.StatusBadRequest, "User already exists with this email")
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusBadRequest, "Invalid password")
	case errors.Is(err, domain.ErrMissingFile):
		writeError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "File too large")
	case errors.Is(err, domain.ErrInvalidFile):
		writeError(w, http.StatusBadRequest, "Error: Images Only!")
	case errors.Is(err, domain.ErrInvalidOrExpired):
		writeError(w, http.StatusBadRequest, "Invalid or Expired Code")
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeError(w, http.StatusBadRequest, "Could not send email.")
	case errors.Is(err, domain.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Status must be Accepted or Rejected")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Booking cannot move to that status")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Booking not found")
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
