package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

// multipart headers and text fields on top of the image itself
const formOverhead = 1 << 20

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handlers) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.spots.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch spots")
		return
	}
	if spots == nil {
		spots = []domain.Spot{}
	}
	writeJSON(w, http.StatusOK, spots)
}

func (h *Handlers) CreateSpot(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUploadForm(w, r); err != nil {
		writeServiceError(w, r, err, "Failed to add spot")
		return
	}

	image, closeImage, err := formUpload(r, "image")
	if err != nil {
		writeServiceError(w, r, err, "Failed to add spot")
		return
	}
	defer closeImage()

	in := domain.SpotInput{
		State:       r.PostFormValue("state"),
		Name:        r.PostFormValue("name"),
		Category:    r.PostFormValue("category"),
		Description: r.PostFormValue("desc"),
		Lat:         r.PostFormValue("lat"),
		Lng:         r.PostFormValue("lng"),
	}
	if _, err := h.spots.Create(r.Context(), in, image); err != nil {
		writeServiceError(w, r, err, "Failed to add spot")
		return
	}
	writeSuccess(w, "Spot added successfully!")
}

func (h *Handlers) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid spot ID")
		return
	}

	if err := h.spots.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Failed to delete spot")
		return
	}
	writeSuccess(w, "Spot deleted!")
}

func (h *Handlers) ListGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.guides.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch guides")
		return
	}
	if guides == nil {
		guides = []domain.GuideProfile{}
	}
	writeJSON(w, http.StatusOK, guides)
}

func (h *Handlers) GetGuideProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.guides.GetOrCreate(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load guide profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) SaveGuideProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUploadForm(w, r); err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}

	image, closeImage, err := formUpload(r, "profileImage")
	if err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}
	defer closeImage()

	// address is accepted from the form but not stored
	patch := domain.GuideProfilePatch{
		Name:       presentField(r, "name"),
		Bio:        presentField(r, "bio"),
		Experience: presentField(r, "experience"),
		Languages:  presentField(r, "languages"),
		Phone:      presentField(r, "phone"),
	}
	if _, err := h.guides.Upsert(r.Context(), r.PostFormValue("email"), patch, image); err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}
	writeSuccess(w, "Profile Updated")
}

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Failed to save feedback")
		return
	}

	entry := &domain.FeedbackEntry{Name: req.Name, Email: req.Email, Message: req.Message}
	if _, err := h.feedback.Submit(r.Context(), entry); err != nil {
		writeServiceError(w, r, err, "Failed to save feedback")
		return
	}
	writeSuccess(w, "Feedback saved!")
}

func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch feedback")
		return
	}
	if entries == nil {
		entries = []domain.FeedbackEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseUploadForm reads a multipart (or urlencoded) form, bounding the body
// by the upload limit.
func (h *Handlers) parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	maxBytes := h.config.Storage.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)

	err := r.ParseMultipartForm(maxBytes)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	case errors.As(err, &tooLarge):
		return domain.ErrFileTooLarge
	default:
		return domain.Invalid("malformed form body")
	}
}

// formUpload opens the named file field. A missing field yields a nil upload.
func formUpload(r *http.Request, field string) (*domain.Upload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, noop, nil
	}

	header := r.MultipartForm.File[field][0]
	file, err := header.Open()
	if err != nil {
		return nil, noop, domain.Invalid("unreadable upload")
	}
	return &domain.Upload{Filename: header.Filename, Content: file}, func() { file.Close() }, nil
}

// presentField returns nil when the form did not carry the field at all.
func presentField(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
