package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Admin is the identity operating the dashboard.
type Admin struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	Role     string `json:"role"`
}

// AdminAccount is an admin stored by this service rather than the backend.
type AdminAccount struct {
	Admin
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
