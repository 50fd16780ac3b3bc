package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the caller roles the gateway distinguishes.
type UserRole string

const (
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleMerchant   UserRole = "MERCHANT"
)

// JWTClaims represents the payload of access tokens issued by the identity
// provider. For instructors UserID doubles as the instructor id; StudioID is
// the studio the caller belongs to (owns, for merchants).
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	StudioID string   `json:"studio_id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
