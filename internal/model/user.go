package model

import "time"

// User is a platform end user managed from the admin panel. Distinct from an
// Identity: a user record describes a learner, an identity authenticates.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserForm is the submitted form state for creating or editing a user.
type UserForm struct {
	ID     string `json:"id"`
	Email  string `json:"email" binding:"required,email,max=255"`
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Role   string `json:"role" binding:"omitempty,oneof=student editor admin"`
	Status string `json:"status" binding:"omitempty,oneof=active suspended"`
}
