package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
)

var (
	// ErrMaterialNotFound indicates a material could not be located.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrMaterialContentMissing indicates neither a file nor a link was supplied.
	ErrMaterialContentMissing = errors.New("material requires a file upload or an external url")
)

// MaterialService exposes study material operations.
type MaterialService interface {
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.MaterialResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.MaterialResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type materialService struct {
	materials repository.MaterialRepository
	courses   repository.CourseRepository
	uploader  FileUploader
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(
	materials repository.MaterialRepository,
	courses repository.CourseRepository,
	uploader FileUploader,
	validate *validator.Validate,
	logger zerolog.Logger,
) MaterialService {
	return &materialService{
		materials: materials,
		courses:   courses,
		uploader:  uploader,
		validator: validate,
		logger:    logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.MaterialResponse, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if !CanReadCourse(actor, course) {
		return nil, ErrForbidden
	}

	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Get(ctx context.Context, actor Actor, id uint) (dto.MaterialResponse, error) {
	material, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	if !CanReadCourse(actor, course) {
		return dto.MaterialResponse{}, ErrForbidden
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Create(ctx context.Context, actor Actor, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	course, err := s.getCourse(ctx, payload.CourseID)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.MaterialResponse{}, ErrForbidden
	}

	material := models.Material{
		CourseID:    course.ID,
		AuthorID:    actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
	}

	switch {
	case file != nil:
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.MaterialResponse{}, err
		}
		material.Kind = models.ContentKindFile
		material.FileURL = url
	case payload.ExternalURL != "":
		material.Kind = models.ContentKindLink
		material.ExternalURL = payload.ExternalURL
	default:
		return dto.MaterialResponse{}, ErrMaterialContentMissing
	}

	if err := s.materials.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Uint("course_id", course.ID).Str("kind", material.Kind).Msg("material published")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Update(ctx context.Context, actor Actor, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	material, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.MaterialResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		material.Title = *payload.Title
	}
	if payload.Description != nil {
		material.Description = *payload.Description
	}
	if payload.ExternalURL != nil {
		material.ExternalURL = *payload.ExternalURL
		if material.ExternalURL != "" {
			material.Kind = models.ContentKindLink
		}
	}

	if err := s.materials.Update(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, actor Actor, id uint) error {
	_, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(actor, course) {
		return ErrForbidden
	}

	return s.materials.Delete(ctx, id)
}

func (s *materialService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
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

func (s *materialService) getCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *materialService) getWithCourse(ctx context.Context, id uint) (models.Material, models.Course, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Material{}, models.Course{}, ErrMaterialNotFound
		}
		return models.Material{}, models.Course{}, err
	}

	course, err := s.getCourse(ctx, material.CourseID)
	if err != nil {
		return models.Material{}, models.Course{}, err
	}

	return material, course, nil
}
