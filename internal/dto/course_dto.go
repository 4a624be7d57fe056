package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a new course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3"`
	Code        string `json:"code" validate:"required,min=2,max=32"`
	Description string `json:"description"`
}

// CourseUpdateRequest describes the payload for updating a course.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Code        *string `json:"code" validate:"omitempty,min=2,max=32"`
	Description *string `json:"description"`
}

// CourseResponse is the serialized representation returned to API clients.
type CourseResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	TeacherID   uint           `json:"teacher_id"`
	Teacher     *UserResponse  `json:"teacher,omitempty"`
	Students    []UserResponse `json:"students,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EnrollmentResponse summarizes one course membership.
type EnrollmentResponse struct {
	CourseID   uint      `json:"course_id"`
	StudentID  uint      `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	response := CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Code:        model.Code,
		Description: model.Description,
		TeacherID:   model.TeacherID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Teacher.ID != 0 {
		teacher := NewUserResponse(model.Teacher)
		response.Teacher = &teacher
	}

	if len(model.Enrollments) > 0 {
		students := make([]UserResponse, 0, len(model.Enrollments))
		for _, enrollment := range model.Enrollments {
			if enrollment.Student.ID != 0 {
				students = append(students, NewUserResponse(enrollment.Student))
			}
		}
		response.Students = students
	}

	return response
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
