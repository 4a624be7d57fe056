package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// MaterialCreateRequest describes the multipart payload for publishing
// course material. Either a file upload or an external URL must accompany it.
type MaterialCreateRequest struct {
	CourseID    uint   `form:"course_id" json:"course_id" validate:"required,gt=0"`
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Description string `form:"description" json:"description"`
	ExternalURL string `form:"external_url" json:"external_url" validate:"omitempty,url"`
}

// MaterialUpdateRequest describes the payload for updating material metadata.
type MaterialUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Description *string `form:"description" json:"description"`
	ExternalURL *string `form:"external_url" json:"external_url" validate:"omitempty,url"`
}

// MaterialResponse is the serialized representation returned to API clients.
type MaterialResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	AuthorID    uint      `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	FileURL     string    `json:"file_url,omitempty"`
	ExternalURL string    `json:"external_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMaterialResponse converts a model into a DTO.
func NewMaterialResponse(model models.Material) MaterialResponse {
	return MaterialResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		AuthorID:    model.AuthorID,
		Title:       model.Title,
		Description: model.Description,
		Kind:        model.Kind,
		FileURL:     model.FileURL,
		ExternalURL: model.ExternalURL,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewMaterialResponseSlice converts a slice of models into DTOs.
func NewMaterialResponseSlice(materials []models.Material) []MaterialResponse {
	responses := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		responses = append(responses, NewMaterialResponse(material))
	}

	return responses
}
