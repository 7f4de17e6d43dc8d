package model

import "strings"

// Identity is an authenticated principal as reported by the identity gateway.
// Read-only to the rest of the system.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Label returns the name shown in the admin header: display name, else the
// email local part, else a generic fallback.
func (i Identity) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if at := strings.Index(i.Email, "@"); at > 0 {
		return i.Email[:at]
	}
	return "Admin User"
}

// AdminRecord is the authorization record stored in the admins collection,
// keyed by identity id. An identity is an admin iff its record exists with
// RoleAdmin.
type AdminRecord struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
}

// RoleAdmin is the only role that grants access to the admin surface.
const RoleAdmin = "admin"

// LoginRequest is the payload for admin authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful admin login.
type LoginResponse struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
	Label    string   `json:"label"`
}

// CreateIdentityRequest is the payload for the admin-creation flow.
type CreateIdentityRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	// GrantAdmin also writes the authorization record for the new identity.
	GrantAdmin bool `json:"grant_admin"`
}
