package models

import "time"

// User represents an account that can own courses or enroll in them.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	// RoleStudent can enroll in courses and submit work.
	RoleStudent = "student"
	// RoleTeacher owns courses and grades submissions.
	RoleTeacher = "teacher"
	// RoleAdmin has unrestricted access to every course.
	RoleAdmin = "admin"
)

// IsTeacher reports whether the user may own course content.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsAdmin reports whether the user bypasses ownership checks.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
