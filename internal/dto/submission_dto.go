package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// GradeRequest is used by teachers to grade a submission. Grade arrives as a
// raw string so non-numeric input can be rejected with a range message naming
// the assignment's actual bound.
type GradeRequest struct {
	Grade    string `json:"grade" validate:"required"`
	Feedback string `json:"feedback"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted graded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	FileURL      string         `json:"file_url"`
	Status       string         `json:"status"`
	Grade        *float64       `json:"grade"`
	Feedback     string         `json:"feedback"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	GradedAt     *time.Time     `json:"graded_at"`
	GradedBy     *uint          `json:"graded_by"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Deadline    time.Time `json:"deadline"`
	TotalPoints float64   `json:"total_points"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		FileURL:      model.FileURL,
		Status:       model.Status,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
		GradedBy:     model.GradedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			Deadline:    model.Assignment.Deadline,
			TotalPoints: model.Assignment.TotalPoints,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
