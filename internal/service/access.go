package service

import (
	"errors"

	"github.com/classworks/lms-api/internal/models"
)

// Actor represents the authenticated identity performing an operation. It is
// threaded explicitly through every service call instead of being read from
// ambient middleware state.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsStudent reports whether the actor carries the student role.
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

// Authorization errors shared across services.
var (
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrNotEnrolled indicates a student is not enrolled in the course.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
)

// CanManageCourse reports whether the actor may mutate the course or any of
// its child entities. Only the owning teacher and admins qualify; students
// are always denied.
func CanManageCourse(actor Actor, course models.Course) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID == course.TeacherID
}

// CanReadCourse reports whether the actor may read the course and its
// children: the owning teacher, an admin, or an enrolled student.
func CanReadCourse(actor Actor, course models.Course) bool {
	if CanManageCourse(actor, course) {
		return true
	}
	return course.HasStudent(actor.ID)
}
