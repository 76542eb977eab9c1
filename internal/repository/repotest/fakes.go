package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

// Accounts is an in-memory AccountRepository.
type Accounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]*domain.Account
	Err      error

	// CreateErr fails only Create, after lookups succeed.
	CreateErr error
}

func NewAccounts() *Accounts {
	return &Accounts{nextID: 1, accounts: make(map[string]*domain.Account)}
}

func (r *Accounts) Create(_ context.Context, email, hash string, role domain.Role) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	if _, ok := r.accounts[email]; ok {
		return nil, domain.ErrDuplicateAccount
	}
	a := &domain.Account{ID: r.nextID, Email: email, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	r.nextID++
	r.accounts[email] = a
	cp := *a
	return &cp, nil
}

func (r *Accounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *Accounts) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// OTPs is an in-memory OTPRepository with a controllable clock.
type OTPs struct {
	mu       sync.Mutex
	codes    map[string]otpEntry
	verified map[string]time.Time
	Now      func() time.Time
	Err      error
}

type otpEntry struct {
	hash    string
	expires time.Time
}

func NewOTPs() *OTPs {
	return &OTPs{
		codes:    make(map[string]otpEntry),
		verified: make(map[string]time.Time),
		Now:      time.Now,
	}
}

func (r *OTPs) Save(_ context.Context, email, hash string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.codes[email] = otpEntry{hash: hash, expires: r.Now().Add(ttl)}
	return nil
}

func (r *OTPs) Get(_ context.Context, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	e, ok := r.codes[email]
	if !ok || !r.Now().Before(e.expires) {
		return "", nil
	}
	return e.hash, nil
}

func (r *OTPs) Delete(_ context.Context, email, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	e, ok := r.codes[email]
	if !ok || e.hash != hash {
		return false, nil
	}
	delete(r.codes, email)
	return r.Now().Before(e.expires), nil
}

func (r *OTPs) MarkVerified(_ context.Context, email string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified[email] = r.Now().Add(ttl)
	return nil
}

func (r *OTPs) IsVerified(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	exp, ok := r.verified[email]
	return ok && r.Now().Before(exp), nil
}

func (r *OTPs) ConsumeVerified(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.verified[email]
	delete(r.verified, email)
	return ok && r.Now().Before(exp), nil
}

// Live reports whether a challenge is stored for email.
func (r *OTPs) Live(email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.codes[email]
	return ok && r.Now().Before(e.expires)
}

// Spots is an in-memory SpotRepository.
type Spots struct {
	mu     sync.Mutex
	nextID int64
	spots  []domain.Spot
	Err    error
}

func NewSpots() *Spots {
	return &Spots{nextID: 1}
}

func (r *Spots) List(context.Context) ([]domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]domain.Spot{}, r.spots...), nil
}

func (r *Spots) Create(_ context.Context, s *domain.Spot) (*domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	cp := *s
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.nextID++
	r.spots = append(r.spots, cp)
	return &cp, nil
}

func (r *Spots) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for i, s := range r.spots {
		if s.ID == id {
			r.spots = append(r.spots[:i], r.spots[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Guides is an in-memory GuideRepository.
type Guides struct {
	mu     sync.Mutex
	nextID int64
	guides map[string]*domain.GuideProfile
	Err    error
}

func NewGuides() *Guides {
	return &Guides{nextID: 1, guides: make(map[string]*domain.GuideProfile)}
}

func (r *Guides) List(context.Context) ([]domain.GuideProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []domain.GuideProfile{}
	for _, g := range r.guides {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Guides) FindByEmail(_ context.Context, email string) (*domain.GuideProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	g, ok := r.guides[email]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *Guides) GetOrCreate(_ context.Context, email string) (*domain.GuideProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	g := r.getOrInit(email)
	cp := *g
	return &cp, nil
}

func (r *Guides) Upsert(_ context.Context, email string, p domain.GuideProfilePatch) (*domain.GuideProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	g := r.getOrInit(email)
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.Name, p.Name)
	set(&g.Bio, p.Bio)
	set(&g.Experience, p.Experience)
	set(&g.Languages, p.Languages)
	set(&g.Phone, p.Phone)
	set(&g.ProfileImage, p.ProfileImage)
	g.UpdatedAt = time.Now()
	cp := *g
	return &cp, nil
}

func (r *Guides) AddRating(_ context.Context, email string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	g, ok := r.guides[email]
	if !ok {
		return nil
	}
	g.Rating = (g.Rating*float64(g.ReviewsCount) + float64(rating)) / float64(g.ReviewsCount+1)
	g.ReviewsCount++
	return nil
}

func (r *Guides) getOrInit(email string) *domain.GuideProfile {
	g, ok := r.guides[email]
	if !ok {
		now := time.Now()
		g = &domain.GuideProfile{ID: r.nextID, Email: email, Name: domain.DefaultGuideName, CreatedAt: now, UpdatedAt: now}
		r.nextID++
		r.guides[email] = g
	}
	return g
}

// Bookings is an in-memory BookingRepository.
type Bookings struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
	clock    time.Time
	Err      error
}

func NewBookings() *Bookings {
	return &Bookings{nextID: 1, bookings: make(map[int64]*domain.Booking), clock: time.Now()}
}

func (r *Bookings) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	// strictly increasing timestamps keep newest-first ordering deterministic
	r.clock = r.clock.Add(time.Millisecond)
	cp := *b
	cp.ID = r.nextID
	cp.Status = domain.BookingPending
	cp.CreatedAt = r.clock
	cp.UpdatedAt = r.clock
	r.nextID++
	r.bookings[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *Bookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *Bookings) Transition(_ context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *Bookings) Complete(_ context.Context, id int64, rating int, review string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok || b.Status != domain.BookingAccepted {
		return nil, nil
	}
	b.Status = domain.BookingCompleted
	b.Rating = rating
	b.Review = review
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *Bookings) ListByTourist(_ context.Context, email string) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.TouristEmail == email })
}

func (r *Bookings) ListByGuide(_ context.Context, email string, t domain.BookingType) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.GuideEmail == email && b.Type == t })
}

func (r *Bookings) filter(keep func(*domain.Booking) bool) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []domain.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Feedback is an in-memory FeedbackRepository.
type Feedback struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.FeedbackEntry
	clock   time.Time
	Err     error
}

func NewFeedback() *Feedback {
	return &Feedback{nextID: 1, clock: time.Now()}
}

func (r *Feedback) Create(_ context.Context, f *domain.FeedbackEntry) (*domain.FeedbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.clock = r.clock.Add(time.Millisecond)
	cp := *f
	cp.ID = r.nextID
	cp.SubmittedAt = r.clock
	r.nextID++
	r.entries = append(r.entries, cp)
	return &cp, nil
}

func (r *Feedback) List(context.Context) ([]domain.FeedbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := append([]domain.FeedbackEntry{}, r.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}
