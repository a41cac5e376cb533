package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the identity provider knows about a signed-in person.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Session is an identity enriched with the backend user record found by email.
type Session struct {
	Identity   Identity `json:"identity"`
	UserID     string   `json:"userId,omitempty"`
	Role       UserRole `json:"role"`
	IsPremium  bool     `json:"isPremium"`
	Credential string   `json:"-"`
	Profile    *User    `json:"profile,omitempty"`
}

// Email is the foreign key into the users collection.
func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	return s.Identity.Email
}

// IsAdmin reports whether the enriched role is admin.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Credentials are the tokens handed back after sign-in.
type Credentials struct {
	IDToken   string    `json:"idToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginRequest holds credentials for password sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an identity and its backend user record.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=80"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// LoginResponse returns the credential together with the resolved session.
type LoginResponse struct {
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Session    *Session  `json:"session"`
}

// DevClaims is the payload of tokens minted by the development identity provider.
type DevClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	PhotoURL    string `json:"picture,omitempty"`
	Generation  int    `json:"gen"`
	jwt.RegisteredClaims
}
