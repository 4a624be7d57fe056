package models

import "time"

// Notice represents an announcement posted on a course. The body may carry
// an attachment or a link in addition to the sanitized text.
type Notice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	AuthorID    uint      `gorm:"not null" json:"author_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	Kind        string    `gorm:"size:16;not null" json:"kind"`
	FileURL     string    `gorm:"size:512" json:"file_url"`
	ExternalURL string    `gorm:"size:512" json:"external_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
