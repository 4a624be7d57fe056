package models

import "time"

// Assignment represents graded coursework with a file deliverable.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CourseID    uint         `gorm:"not null;index" json:"course_id"`
	TeacherID   uint         `gorm:"not null;index" json:"teacher_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Deadline    time.Time    `gorm:"not null" json:"deadline"`
	TotalPoints float64      `gorm:"not null" json:"total_points"`
	FileURL     string       `gorm:"size:512" json:"file_url"`
	Submissions []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}
