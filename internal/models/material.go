package models

import "time"

const (
	// ContentKindFile points at an uploaded file.
	ContentKindFile = "file"
	// ContentKindLink points at an external URL.
	ContentKindLink = "link"
)

// Material represents study content published on a course, either an
// uploaded file or an external link.
type Material struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	AuthorID    uint      `gorm:"not null" json:"author_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Kind        string    `gorm:"size:16;not null" json:"kind"`
	FileURL     string    `gorm:"size:512" json:"file_url"`
	ExternalURL string    `gorm:"size:512" json:"external_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
