package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	// RoleService is carried by internal callers that act on behalf of any customer.
	RoleService Role = "service"
)

// JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CanActFor reports whether the caller may read or write data owned by customerID.
func (c *Claims) CanActFor(customerID uuid.UUID) bool {
	return c.Role == RoleService || c.UserID == customerID
}
