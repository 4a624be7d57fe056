package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID    uint    `form:"course_id" json:"course_id" validate:"required,gt=0"`
	Title       string  `form:"title" json:"title" validate:"required,min=3"`
	Description string  `form:"description" json:"description"`
	Deadline    string  `form:"deadline" json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	TotalPoints float64 `form:"total_points" json:"total_points" validate:"required,gt=0"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title       *string  `form:"title" json:"title" validate:"omitempty,min=3"`
	Description *string  `form:"description" json:"description"`
	Deadline    *string  `form:"deadline" json:"deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	TotalPoints *float64 `form:"total_points" json:"total_points" validate:"omitempty,gt=0"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	TeacherID   uint      `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	TotalPoints float64   `json:"total_points"`
	FileURL     string    `json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		TeacherID:   model.TeacherID,
		Title:       model.Title,
		Description: model.Description,
		Deadline:    model.Deadline,
		TotalPoints: model.TotalPoints,
		FileURL:     model.FileURL,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
