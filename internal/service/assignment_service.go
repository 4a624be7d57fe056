package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates an assignment could not be located.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrUnsupportedFileType indicates an upload with a disallowed MIME type.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// FileUploader abstracts uploading binary data and returning a URL or path.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService orchestrates assignment CRUD.
type AssignmentService interface {
	ListForTeacher(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) ListForTeacher(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error) {
	courses, err := s.courses.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	assignments, err := s.assignments.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !CanReadCourse(actor, course) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
	}

	assignment := models.Assignment{
		CourseID:    course.ID,
		TeacherID:   course.TeacherID,
		Title:       payload.Title,
		Description: payload.Description,
		Deadline:    deadline,
		TotalPoints: payload.TotalPoints,
	}

	if file != nil {
		url, err := s.uploadAttachment(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", course.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
		}
		assignment.Deadline = deadline
	}
	if payload.TotalPoints != nil {
		assignment.TotalPoints = *payload.TotalPoints
	}

	if file != nil {
		url, err := s.uploadAttachment(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	_, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(actor, course) {
		return ErrForbidden
	}

	return s.assignments.Delete(ctx, id)
}

func (s *assignmentService) getWithCourse(ctx context.Context, id uint) (models.Assignment, models.Course, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Course{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, models.Course{}, err
	}

	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Course{}, ErrCourseNotFound
		}
		return models.Assignment{}, models.Course{}, err
	}

	return assignment, course, nil
}

func (s *assignmentService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateFileType(file); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/zip",
		"application/x-zip-compressed",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"image/png",
		"image/jpeg",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
