package domain

import (
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleTourist Role = "tourist"
	RoleGuide   Role = "guide"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTourist, RoleGuide:
		return Role(s), true
	default:
		return "", false
	}
}

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (c *Credentials) Normalize() {
	c.Email = NormalizeEmail(c.Email)
	c.Role = strings.ToLower(strings.TrimSpace(c.Role))
}

func (c *Credentials) Validate() error {
	if c.Email == "" {
		return Invalid("email is required")
	}
	if !IsValidEmail(c.Email) {
		return Invalid("invalid email format")
	}
	if c.Password == "" {
		return Invalid("password is required")
	}
	if _, ok := ParseRole(c.Role); !ok {
		return Invalid("role must be tourist or guide")
	}
	return nil
}

type LoginResult struct {
	Role  Role
	Token string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
