package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// NoticeCreateRequest describes the multipart payload for posting a notice.
type NoticeCreateRequest struct {
	CourseID    uint   `form:"course_id" json:"course_id" validate:"required,gt=0"`
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Body        string `form:"body" json:"body"`
	ExternalURL string `form:"external_url" json:"external_url" validate:"omitempty,url"`
}

// NoticeUpdateRequest describes the payload for updating a notice.
type NoticeUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Body        *string `form:"body" json:"body"`
	ExternalURL *string `form:"external_url" json:"external_url" validate:"omitempty,url"`
}

// NoticeResponse is the serialized representation returned to API clients.
type NoticeResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	AuthorID    uint      `json:"author_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Kind        string    `json:"kind"`
	FileURL     string    `json:"file_url,omitempty"`
	ExternalURL string    `json:"external_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewNoticeResponse converts a model into a DTO.
func NewNoticeResponse(model models.Notice) NoticeResponse {
	return NoticeResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		AuthorID:    model.AuthorID,
		Title:       model.Title,
		Body:        model.Body,
		Kind:        model.Kind,
		FileURL:     model.FileURL,
		ExternalURL: model.ExternalURL,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewNoticeResponseSlice converts a slice of models into DTOs.
func NewNoticeResponseSlice(notices []models.Notice) []NoticeResponse {
	responses := make([]NoticeResponse, 0, len(notices))
	for _, notice := range notices {
		responses = append(responses, NewNoticeResponse(notice))
	}

	return responses
}
