package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type emailQuery struct {
	Email string `query:"email" required:"true"`
}

type spotIDPath struct {
	ID int64 `path:"id"`
}

type spotForm struct {
	State    string         `formData:"state"`
	Name     string         `formData:"name"`
	Category string         `formData:"category"`
	Desc     string         `formData:"desc"`
	Lat      string         `formData:"lat"`
	Lng      string         `formData:"lng"`
	Image    multipart.File `formData:"image" required:"true"`
}

type guideProfileForm struct {
	Email        string         `formData:"email" required:"true"`
	Name         string         `formData:"name"`
	Bio          string         `formData:"bio"`
	Experience   string         `formData:"experience"`
	Languages    string         `formData:"languages"`
	Phone        string         `formData:"phone"`
	Address      string         `formData:"address"`
	ProfileImage multipart.File `formData:"profileImage"`
}

type operation struct {
	method, path, summary string
	req                   interface{}
	resp                  interface{}
	failures              []int
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Trail Bliss API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Tourism booking backend: accounts, spots, guides, bookings and feedback.")

	ops := []operation{
		{http.MethodPost, "/api/register", "Register an account", domain.Credentials{}, SuccessResponse{}, []int{400}},
		{http.MethodPost, "/api/login", "Log in", domain.Credentials{}, LoginResponse{}, []int{400, 403}},
		{http.MethodGet, "/api/spots", "List spots", nil, []domain.Spot{}, []int{500}},
		{http.MethodPost, "/api/spots", "Create a spot", spotForm{}, SuccessResponse{}, []int{400, 500}},
		{http.MethodDelete, "/api/spots/{id}", "Delete a spot", spotIDPath{}, SuccessResponse{}, []int{400, 500}},
		{http.MethodPost, "/api/send-verification", "Email a verification code", VerificationRequest{}, SuccessResponse{}, []int{400, 429}},
		{http.MethodPost, "/api/verify-code", "Verify an emailed code", VerifyCodeRequest{}, SuccessResponse{}, []int{400}},
		{http.MethodPost, "/api/feedback", "Submit feedback", FeedbackRequest{}, SuccessResponse{}, []int{400, 500}},
		{http.MethodGet, "/api/view-feedback", "List feedback, newest first", nil, []domain.FeedbackEntry{}, []int{500}},
		{http.MethodGet, "/api/guides", "List guide profiles", nil, []domain.GuideProfile{}, []int{500}},
		{http.MethodGet, "/api/guide-profile", "Get or create a guide profile", emailQuery{}, domain.GuideProfile{}, []int{400, 500}},
		{http.MethodPost, "/api/guide-profile", "Update a guide profile", guideProfileForm{}, SuccessResponse{}, []int{400, 500}},
		{http.MethodGet, "/api/guide-bookings", "List a guide's offline bookings", emailQuery{}, []domain.Booking{}, []int{400, 500}},
		{http.MethodPost, "/api/book", "Request a booking", domain.BookingRequest{}, BookResponse{}, []int{400, 500}},
		{http.MethodPut, "/api/booking-status", "Accept or reject a booking", BookingStatusRequest{}, SuccessResponse{}, []int{400, 404, 409}},
		{http.MethodPost, "/api/complete-trip", "Complete a trip with a rating", CompleteTripRequest{}, SuccessResponse{}, []int{400, 404, 409}},
		{http.MethodGet, "/api/tourist-bookings", "List a tourist's bookings", emailQuery{}, []domain.TouristBooking{}, []int{400, 500}},
	}

	for _, op := range ops {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(http.StatusOK))
		for _, status := range op.failures {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

// OpenAPI serves the API description rendered once at startup.
func OpenAPI() http.HandlerFunc {
	data, _ := json.MarshalIndent(newOpenAPISpec(), "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
