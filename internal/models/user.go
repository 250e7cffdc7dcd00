package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the reviewer tier carried in access tokens.
type UserRole string

const (
	RoleCentralAdmin  UserRole = "CENTRAL_ADMIN"
	RoleDistrictAdmin UserRole = "DISTRICT_ADMIN"
	RoleRegionalAdmin UserRole = "REGIONAL_ADMIN"
	RoleMember        UserRole = "MEMBER"
)

// User is the subset of the account record the core relies on.
type User struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	RegionID  *string   `db:"region_id" json:"region_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
