package models

import "time"

// Course is the top-level enrollment unit owned by exactly one teacher.
type Course struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Code        string       `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Description string       `gorm:"type:text" json:"description"`
	TeacherID   uint         `gorm:"not null;index" json:"teacher_id"`
	Teacher     User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Enrollments []Enrollment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"enrollments,omitempty"`
	Assignments []Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignments,omitempty"`
	Quizzes     []Quiz       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"quizzes,omitempty"`
	Materials   []Material   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"materials,omitempty"`
	Notices     []Notice     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"notices,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Enrollment links a student to a course. The composite unique index makes
// double enrollment a constraint violation rather than an application race.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"student_id"`
	Student    User      `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
}

// HasStudent reports whether the given user appears in the loaded enrollments.
func (c Course) HasStudent(studentID uint) bool {
	for _, enrollment := range c.Enrollments {
		if enrollment.StudentID == studentID {
			return true
		}
	}
	return false
}
