package handlers_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/pkg/config"
)

func TestSpots_CreateListDelete(t *testing.T) {
	env := newTestEnv(t)

	postMultipart(t, env.url+"/api/spots", map[string]string{
		"state": "Karnataka", "name": "Hampi", "category": "Heritage", "desc": "Ruins of Vijayanagara",
		"lat": "15.335", "lng": "76.46",
	}, &filePart{"image", "hampi.png", pngBytes}, http.StatusOK)
	postMultipart(t, env.url+"/api/spots", map[string]string{"name": "Nowhere"},
		&filePart{"image", "nowhere.png", pngBytes}, http.StatusOK)

	var spots []domain.Spot
	decode(t, get(t, env.url+"/api/spots", http.StatusOK), &spots)
	require.Len(t, spots, 2)
	assert.Equal(t, "Ruins of Vijayanagara", spots[0].Description)
	assert.Equal(t, 15.335, spots[0].Lat)
	assert.True(t, strings.HasPrefix(spots[0].Image, "/uploads/spot-"))
	assert.Equal(t, domain.DefaultLat, spots[1].Lat)
	assert.Equal(t, domain.DefaultLng, spots[1].Lng)

	del(t, env.url+"/api/spots/"+itoa(spots[0].ID), http.StatusOK)
	del(t, env.url+"/api/spots/"+itoa(spots[0].ID), http.StatusOK)

	body := del(t, env.url+"/api/spots/not-a-number", http.StatusBadRequest)
	assert.Equal(t, "Invalid spot ID", errorMessage(t, body))

	decode(t, get(t, env.url+"/api/spots", http.StatusOK), &spots)
	assert.Len(t, spots, 1)
}

func TestSpots_UploadRejections(t *testing.T) {
	env := newTestEnv(t)

	body := postMultipart(t, env.url+"/api/spots", map[string]string{"name": "A"}, nil, http.StatusBadRequest)
	assert.Equal(t, "No file uploaded", errorMessage(t, body))

	body = postMultipart(t, env.url+"/api/spots", map[string]string{"name": "A"},
		&filePart{"image", "notes.txt", []byte("hello")}, http.StatusBadRequest)
	assert.Equal(t, "Error: Images Only!", errorMessage(t, body))

	// right extension, wrong content
	body = postMultipart(t, env.url+"/api/spots", map[string]string{"name": "A"},
		&filePart{"image", "fake.png", []byte("plain text pretending")}, http.StatusBadRequest)
	assert.Equal(t, "Error: Images Only!", errorMessage(t, body))

	assert.Equal(t, "[]\n", string(get(t, env.url+"/api/spots", http.StatusOK)))
}

func TestSpots_FileTooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Storage.MaxUploadBytes = 64 })

	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 128)...)
	body := postMultipart(t, env.url+"/api/spots", map[string]string{"name": "Big"},
		&filePart{"image", "big.png", big}, http.StatusBadRequest)
	assert.Equal(t, "File too large", errorMessage(t, body))
}

func TestSpots_FileTooLargeAtDefaultLimit(t *testing.T) {
	env := newTestEnv(t)

	for _, size := range []int{6_000_000, 6 << 20} {
		big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, size-len(pngBytes))...)
		body := postMultipart(t, env.url+"/api/spots", map[string]string{"name": "Big"},
			&filePart{"image", "big.png", big}, http.StatusBadRequest)
		assert.Equal(t, "File too large", errorMessage(t, body))
	}

	assert.Equal(t, "[]\n", string(get(t, env.url+"/api/spots", http.StatusOK)))
}

func TestGuideProfile_PlaceholderAndPartialUpdates(t *testing.T) {
	env := newTestEnv(t)

	var profile domain.GuideProfile
	decode(t, get(t, env.url+"/api/guide-profile?email=Asha@example.com", http.StatusOK), &profile)
	assert.Equal(t, "asha@example.com", profile.Email)
	assert.Equal(t, domain.DefaultGuideName, profile.Name)

	postMultipart(t, env.url+"/api/guide-profile", map[string]string{
		"email": "asha@example.com", "name": "Asha", "phone": "555-0100", "address": "ignored",
	}, &filePart{"profileImage", "me.png", pngBytes}, http.StatusOK)

	// only bio is present, everything else is kept
	postMultipart(t, env.url+"/api/guide-profile", map[string]string{
		"email": "asha@example.com", "bio": "Hiker",
	}, nil, http.StatusOK)

	decode(t, get(t, env.url+"/api/guide-profile?email=asha@example.com", http.StatusOK), &profile)
	assert.Equal(t, "Asha", profile.Name)
	assert.Equal(t, "555-0100", profile.Phone)
	assert.Equal(t, "Hiker", profile.Bio)
	assert.True(t, strings.HasPrefix(profile.ProfileImage, "/uploads/guide-"))

	var guides []domain.GuideProfile
	decode(t, get(t, env.url+"/api/guides", http.StatusOK), &guides)
	assert.Len(t, guides, 1)
}

func TestGuideProfile_Validation(t *testing.T) {
	env := newTestEnv(t)

	get(t, env.url+"/api/guide-profile", http.StatusBadRequest)
	postMultipart(t, env.url+"/api/guide-profile", map[string]string{"name": "No Email"}, nil, http.StatusBadRequest)

	body := postMultipart(t, env.url+"/api/guide-profile", map[string]string{"email": "g@example.com"},
		&filePart{"profileImage", "virus.exe", []byte("MZ")}, http.StatusBadRequest)
	assert.Equal(t, "Error: Images Only!", errorMessage(t, body))
}

func TestFeedback_SubmitAndView(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.url+"/api/feedback", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "message": "Loved Coorg",
	}, http.StatusOK)
	postJSON(t, env.url+"/api/feedback", map[string]string{
		"name": "Meera", "email": "meera@example.com", "message": "More treks please",
	}, http.StatusOK)

	var entries []domain.FeedbackEntry
	decode(t, get(t, env.url+"/api/view-feedback", http.StatusOK), &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "More treks please", entries[0].Message)
	assert.Equal(t, "Loved Coorg", entries[1].Message)

	postJSON(t, env.url+"/api/feedback", map[string]string{"name": "X", "email": "x@example.com"}, http.StatusBadRequest)
}

func TestOpenAPI(t *testing.T) {
	env := newTestEnv(t)

	body := string(get(t, env.url+"/openapi.json", http.StatusOK))
	for _, path := range []string{"/api/register", "/api/spots/{id}", "/api/complete-trip", "/api/tourist-bookings"} {
		assert.Contains(t, body, path)
	}
}

func TestOptionalSession_IgnoresBadToken(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.url+"/api/spots", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	do(t, req, http.StatusOK)
}
