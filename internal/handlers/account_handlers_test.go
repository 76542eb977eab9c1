package handlers_test

import (
	"bytes"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbliss/trailbliss-api/internal/handlers"
	"github.com/trailbliss/trailbliss-api/pkg/auth"
	"github.com/trailbliss/trailbliss-api/pkg/config"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	body := postJSON(t, env.url+"/api/register", map[string]string{
		"email": "Asha@Example.com", "password": "trail-pass", "role": "guide",
	}, http.StatusOK)
	var reg handlers.SuccessResponse
	decode(t, body, &reg)
	assert.True(t, reg.Success)
	assert.Equal(t, "Registration successful! Please login.", reg.Message)

	body = postJSON(t, env.url+"/api/login", map[string]string{
		"email": "asha@example.com", "password": "trail-pass", "role": "guide",
	}, http.StatusOK)
	var login handlers.LoginResponse
	decode(t, body, &login)
	assert.True(t, login.Success)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, "guide", string(login.Role))

	claims, err := auth.Parse(login.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	postJSON(t, env.url+"/api/register", map[string]string{
		"email": "a@x.com", "password": "pw", "role": "tourist",
	}, http.StatusOK)

	body := postJSON(t, env.url+"/api/register", map[string]string{
		"email": "a@x.com", "password": "pw2", "role": "guide",
	}, http.StatusBadRequest)
	assert.Equal(t, "User already exists with this email", errorMessage(t, body))

	// the first account is unchanged
	postJSON(t, env.url+"/api/login", map[string]string{
		"email": "a@x.com", "password": "pw", "role": "tourist",
	}, http.StatusOK)
	body = postJSON(t, env.url+"/api/login", map[string]string{
		"email": "a@x.com", "password": "pw2", "role": "guide",
	}, http.StatusForbidden)
	assert.Equal(t, "Please log in via the tourist tab.", errorMessage(t, body))
}

func TestRegister_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "pw", "role": "tourist"}},
		{"missing password", map[string]string{"email": "a@example.com", "role": "tourist"}},
		{"unknown role", map[string]string{"email": "a@example.com", "password": "pw", "role": "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := postJSON(t, env.url+"/api/register", tt.body, http.StatusBadRequest)
			assert.NotEmpty(t, errorMessage(t, body))
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	postJSON(t, env.url+"/api/register", map[string]string{
		"email": "guide@example.com", "password": "pw", "role": "guide",
	}, http.StatusOK)

	body := postJSON(t, env.url+"/api/login", map[string]string{
		"email": "ghost@example.com", "password": "pw", "role": "guide",
	}, http.StatusBadRequest)
	assert.Equal(t, "User not found", errorMessage(t, body))

	body = postJSON(t, env.url+"/api/login", map[string]string{
		"email": "guide@example.com", "password": "pw", "role": "tourist",
	}, http.StatusForbidden)
	assert.Equal(t, "Please log in via the guide tab.", errorMessage(t, body))

	body = postJSON(t, env.url+"/api/login", map[string]string{
		"email": "guide@example.com", "password": "wrong", "role": "guide",
	}, http.StatusBadRequest)
	assert.Equal(t, "Invalid password", errorMessage(t, body))
}

func TestVerification_SendAndVerify(t *testing.T) {
	env := newTestEnv(t)

	body := postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "new@example.com"}, http.StatusOK)
	var sent handlers.SuccessResponse
	decode(t, body, &sent)
	assert.Equal(t, "Code sent", sent.Message)

	code := env.mailer.code("new@example.com")
	require.Len(t, code, 6)

	postJSON(t, env.url+"/api/verify-code", map[string]string{"email": "new@example.com", "code": code}, http.StatusOK)

	body = postJSON(t, env.url+"/api/verify-code", map[string]string{"email": "new@example.com", "code": code}, http.StatusBadRequest)
	assert.Equal(t, "Invalid or Expired Code", errorMessage(t, body))
}

func TestVerification_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "late@example.com"}, http.StatusOK)
	code := env.mailer.code("late@example.com")

	env.redis.FastForward(301 * time.Second)

	body := postJSON(t, env.url+"/api/verify-code", map[string]string{"email": "late@example.com", "code": code}, http.StatusBadRequest)
	assert.Equal(t, "Invalid or Expired Code", errorMessage(t, body))
}

func TestVerification_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	body := postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "not-an-email"}, http.StatusBadRequest)
	assert.NotEmpty(t, errorMessage(t, body))
}

func TestVerification_RateLimited(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "busy@example.com"}, http.StatusOK)
	}
	body := postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "busy@example.com"}, http.StatusTooManyRequests)
	assert.Equal(t, "Too many requests. Try again later.", errorMessage(t, body))

	// the window resets
	env.redis.FastForward(61 * time.Second)
	postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "busy@example.com"}, http.StatusOK)
}

func sendVerificationFrom(t *testing.T, env *testEnv, forwardedFor string, expectedStatus int) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, env.url+"/api/send-verification",
		bytes.NewReader(jsonBytes(map[string]string{"email": "busy@example.com"})))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	do(t, req, expectedStatus)
}

func TestVerification_RateLimitIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		sendVerificationFrom(t, env, "10.0.0."+strconv.Itoa(i), http.StatusOK)
	}
	sendVerificationFrom(t, env, "10.0.0.99", http.StatusTooManyRequests)
}

func TestVerification_RateLimitBehindTrustedProxy(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.TrustProxy = true })

	for i := 0; i < 3; i++ {
		sendVerificationFrom(t, env, "10.0.0.1, 192.168.0.1", http.StatusOK)
	}
	sendVerificationFrom(t, env, "10.0.0.1", http.StatusTooManyRequests)
	sendVerificationFrom(t, env, "10.0.0.2", http.StatusOK)
}

func TestRegister_GatedByVerification(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Auth.RequireVerifiedEmail = true })
	creds := map[string]string{"email": "gated@example.com", "password": "pw", "role": "tourist"}

	body := postJSON(t, env.url+"/api/register", creds, http.StatusBadRequest)
	assert.Equal(t, "Invalid or Expired Code", errorMessage(t, body))

	postJSON(t, env.url+"/api/send-verification", map[string]string{"email": "gated@example.com"}, http.StatusOK)
	postJSON(t, env.url+"/api/verify-code", map[string]string{
		"email": "gated@example.com", "code": env.mailer.code("gated@example.com"),
	}, http.StatusOK)

	postJSON(t, env.url+"/api/register", creds, http.StatusOK)
}
