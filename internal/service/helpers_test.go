package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/trailbliss/trailbliss-api/pkg/config"
)

// cheap hashing parameters keep the account tests fast
var testArgonParams = &argon2id.Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			AccessTokenTTL:   time.Hour,
			OTPTTL:           300 * time.Second,
			VerifiedEmailTTL: 15 * time.Minute,
		},
	}
}

type fakeMailer struct {
	mu      sync.Mutex
	codes   map[string]string
	notices []string
	sendErr error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(map[string]string)}
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.codes[to] = code
	return nil
}

func (m *fakeMailer) SendNotification(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.notices = append(m.notices, to+": "+subject)
	return nil
}

func (m *fakeMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.subjects...)
}

var errBoom = errors.New("boom")
