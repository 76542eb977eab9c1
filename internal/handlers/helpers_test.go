package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/trailbliss/trailbliss-api/internal/handlers"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/internal/repository/repotest"
	"github.com/trailbliss/trailbliss-api/internal/service"
	"github.com/trailbliss/trailbliss-api/internal/storage"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/events"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// ---------- Mocks ----------

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *captureMailer) SendNotification(context.Context, string, string, string) error { return nil }

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

// ---------- Setup ----------

type testEnv struct {
	url    string
	mailer *captureMailer
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			AccessTokenTTL:   time.Hour,
			OTPTTL:           300 * time.Second,
			VerifiedEmailTTL: 15 * time.Minute,
			OTPRateLimit:     3,
			OTPRateWindow:    time.Minute,
		},
		Storage: config.StorageConfig{MaxUploadBytes: 5_000_000},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	images, err := storage.NewLocalImageStore(t.TempDir(), cfg.Storage.MaxUploadBytes)
	require.NoError(t, err)

	otps := repository.NewOTPRepository(client)
	mailer := &captureMailer{codes: make(map[string]string)}
	guides := repotest.NewGuides()

	h := handlers.New(handlers.Services{
		Accounts:     service.NewAccountService(repotest.NewAccounts(), otps, cfg),
		Verification: service.NewVerificationService(otps, mailer, cfg),
		Spots:        service.NewSpotService(repotest.NewSpots(), images),
		Guides:       service.NewGuideService(guides, images),
		Bookings:     service.NewBookingService(repotest.NewBookings(), guides, events.NopEventBus{}),
		Feedback:     service.NewFeedbackService(repotest.NewFeedback()),
	}, repository.NewRateLimitRepository(client), cfg).WithIdempotency(repository.NewIdempotencyRepository(client))

	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	r.Get("/openapi.json", handlers.OpenAPI())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{url: server.URL, mailer: mailer, redis: mr}
}

// ---------- Helpers ----------

func do(t *testing.T, req *http.Request, expectedStatus int) []byte {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if resp.StatusCode != expectedStatus {
		t.Fatalf("%s %s: expected status %d, got %d: %s", req.Method, req.URL, expectedStatus, resp.StatusCode, body)
	}
	return body
}

func sendJSON(t *testing.T, method, url string, data interface{}, expectedStatus int) []byte {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(jsonBytes(data)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return do(t, req, expectedStatus)
}

func postJSON(t *testing.T, url string, data interface{}, expectedStatus int) []byte {
	t.Helper()
	return sendJSON(t, http.MethodPost, url, data, expectedStatus)
}

func putJSON(t *testing.T, url string, data interface{}, expectedStatus int) []byte {
	t.Helper()
	return sendJSON(t, http.MethodPut, url, data, expectedStatus)
}

func get(t *testing.T, url string, expectedStatus int) []byte {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return do(t, req, expectedStatus)
}

func del(t *testing.T, url string, expectedStatus int) []byte {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	return do(t, req, expectedStatus)
}

type filePart struct {
	field, name string
	content     []byte
}

func postMultipart(t *testing.T, url string, fields map[string]string, file *filePart, expectedStatus int) []byte {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, req, expectedStatus)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func jsonBytes(data interface{}) []byte {
	b, _ := json.Marshal(data)
	return b
}

func decode(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var resp handlers.ErrorResponse
	decode(t, body, &resp)
	return resp.Error
}
