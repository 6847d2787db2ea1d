package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the access predicate.
type UserRole string

const (
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// IdentityClaims is the payload of externally issued identity tokens.
// Subject carries the Clerk user ID; Year and Division are only populated
// for student tokens.
type IdentityClaims struct {
	Role     string `json:"role"`
	Year     string `json:"year,omitempty"`
	Division string `json:"division,omitempty"`
	jwt.RegisteredClaims
}

// ViewerContext is the normalized representation of "who is asking",
// constructed once from the identity claims and passed explicitly into
// every domain call. Year and Division are empty for teachers.
type ViewerContext struct {
	Role        UserRole `json:"role"`
	ClerkUserID string   `json:"clerk_user_id"`
	Year        string   `json:"year,omitempty"`
	Division    string   `json:"division,omitempty"`
}

// TeacherContext builds a viewer context for a teacher.
func TeacherContext(clerkUserID string) ViewerContext {
	return ViewerContext{Role: RoleTeacher, ClerkUserID: clerkUserID}
}

// StudentContext builds a viewer context for a student.
func StudentContext(clerkUserID, year, division string) ViewerContext {
	return ViewerContext{Role: RoleStudent, ClerkUserID: clerkUserID, Year: year, Division: division}
}

// IsTeacher reports whether the viewer holds the teacher role.
func (v ViewerContext) IsTeacher() bool {
	return v.Role == RoleTeacher
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
