package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleCourier  = "courier"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleCourier || role == RoleAdmin
}

// User models an authenticated actor in the system. A freshly registered user
// starts with EmailVerified=false and cannot log in until the verification
// token has been consumed.
type User struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	FullName      string    `json:"full_name" bson:"full_name"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role          string    `json:"role" bson:"role"`
	IsActive      bool      `json:"is_active" bson:"is_active"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
