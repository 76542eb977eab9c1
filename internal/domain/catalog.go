package domain

import (
	"io"
	"strconv"
	"strings"
	"time"
)

// Fallback coordinates for spots created without a usable location.
const (
	DefaultLat = 20.5937
	DefaultLng = 78.9629

	DefaultGuideName = "New Guide"
)

type Spot struct {
	ID          int64     `json:"id"`
	State       string    `json:"state"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"desc"`
	Image       string    `json:"image"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SpotInput struct {
	State       string
	Name        string
	Category    string
	Description string
	Lat         string
	Lng         string
}

func (in *SpotInput) Normalize() {
	in.State = strings.TrimSpace(in.State)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
}

// Coordinates parses the submitted location, falling back to the defaults
// when either value is missing, unparseable or zero.
func (in *SpotInput) Coordinates() (float64, float64) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(in.Lat), 64)
	if err != nil || lat == 0 {
		lat = DefaultLat
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(in.Lng), 64)
	if err != nil || lng == 0 {
		lng = DefaultLng
	}
	return lat, lng
}

type GuideProfile struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Bio          string    `json:"bio"`
	Experience   string    `json:"experience"`
	Languages    string    `json:"languages"`
	Phone        string    `json:"phone"`
	ProfileImage string    `json:"profileImage"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviewsCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Contact is the detail shown to tourists once a booking is accepted.
func (g *GuideProfile) Contact() string {
	if p := strings.TrimSpace(g.Phone); p != "" {
		return p
	}
	return g.Email
}

// GuideProfilePatch holds the fields present in an update form. Nil fields keep
// their stored values.
type GuideProfilePatch struct {
	Name         *string
	Bio          *string
	Experience   *string
	Languages    *string
	Phone        *string
	ProfileImage *string
}

type FeedbackEntry struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"date"`
}

func (f *FeedbackEntry) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = NormalizeEmail(f.Email)
	f.Message = strings.TrimSpace(f.Message)
}

func (f *FeedbackEntry) Validate() error {
	if f.Name == "" {
		return Invalid("name is required")
	}
	if f.Email == "" {
		return Invalid("email is required")
	}
	if f.Message == "" {
		return Invalid("message is required")
	}
	return nil
}

// Upload is an image file received from a multipart form.
type Upload struct {
	Filename string
	Content  io.Reader
}
