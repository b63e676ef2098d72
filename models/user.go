package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognized by the API. Every user carries exactly one role.
const (
	RoleCustomer = "customer"
	RoleSales    = "sales"
	RoleStock    = "stock"
	RoleTailor   = "tailor"
	RoleQC       = "qc"
	RoleAdmin    = "admin"
)

// User represents a user in the system (customer or a staff role)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"` // customer, sales, stock, tailor, qc, admin
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether the given role string is one we recognize.
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSales, RoleStock, RoleTailor, RoleQC, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. Services never read the
// session themselves; controllers build an Actor from the authenticated user
// and pass it in explicitly.
type Actor struct {
	UserID uint
	Name   string
	Role   string
}

// ActorFor builds the Actor for a loaded user.
func ActorFor(u *User) Actor {
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasAnyRole reports whether the actor's role is one of the given roles.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
