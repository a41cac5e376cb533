package models

import "strings"

// UserRole is the binary role carried by a backend user record.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Toggle returns the opposite role. Roles never take an intermediate value.
func (r UserRole) Toggle() UserRole {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// Normalize maps unknown or empty roles to RoleUser.
func (r UserRole) Normalize() UserRole {
	if UserRole(strings.ToLower(string(r))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is the backend's user record, keyed by email.
type User struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Role        UserRole  `json:"role"`
	IsPremium   LooseBool `json:"isPremium"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// NewUser is the document posted to the backend on registration.
type NewUser struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL"`
	Role        UserRole `json:"role"`
	IsPremium   bool     `json:"isPremium"`
	CreatedAt   string   `json:"createdAt"`
}

// ProfilePatch updates the editable profile fields.
type ProfilePatch struct {
	DisplayName string `json:"displayName" validate:"required,min=2,max=80"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// RolePatch is the body of PATCH /users/:id/role.
type RolePatch struct {
	Role UserRole `json:"role" validate:"required,oneof=user admin"`
}

// PremiumPatch is the body of PATCH /users/:id after a successful payment.
type PremiumPatch struct {
	IsPremium bool `json:"isPremium"`
}
