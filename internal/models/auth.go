package models

import "github.com/golang-jwt/jwt/v5"

// UserRole distinguishes the two caller kinds the API recognizes.
type UserRole string

// Possible roles.
const (
	RoleStudent UserRole = "STUDENT"
	RoleStaff   UserRole = "STAFF"
)

// JWTClaims is the token payload. Identity management lives outside this
// service; tokens only carry who is calling and in what capacity.
type JWTClaims struct {
	StudentID string   `json:"student_id,omitempty"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}

// CanActFor reports whether the caller may operate on the given student's
// records. Staff may act for anyone.
func (c *JWTClaims) CanActFor(studentID string) bool {
	if c.Role == RoleStaff {
		return true
	}
	return c.StudentID != "" && c.StudentID == studentID
}
