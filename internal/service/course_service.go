package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates a course could not be located.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAlreadyEnrolled indicates a duplicate enrollment attempt.
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	// ErrCourseCodeTaken indicates the course code is already in use.
	ErrCourseCodeTaken = errors.New("course code is already in use")
)

// CourseService orchestrates course CRUD and enrollment.
type CourseService interface {
	List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Enroll(ctx context.Context, actor Actor, courseID uint) (dto.EnrollmentResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "course_service").Logger(),
		now:       time.Now,
	}
}

func (s *courseService) List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error) {
	var (
		courses []models.Course
		err     error
	)

	switch actor.Role {
	case models.RoleAdmin:
		courses, err = s.courses.ListAll(ctx)
	case models.RoleTeacher:
		courses, err = s.courses.ListByTeacher(ctx, actor.ID)
	default:
		courses, err = s.courses.ListByStudent(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !CanReadCourse(actor, course) {
		return dto.CourseResponse{}, ErrForbidden
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if actor.Role != models.RoleTeacher && !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:       payload.Title,
		Code:        payload.Code,
		Description: payload.Description,
		TeacherID:   actor.ID,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	created, err := s.getCourse(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")

	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.CourseResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Code != nil {
		course.Code = *payload.Code
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(actor, course) {
		return ErrForbidden
	}

	return s.courses.Delete(ctx, id)
}

// Enroll registers the student on the course. Duplicate attempts are rejected
// as a conflict; the unique enrollment index backs the check atomically.
func (s *courseService) Enroll(ctx context.Context, actor Actor, courseID uint) (dto.EnrollmentResponse, error) {
	if !actor.IsStudent() {
		return dto.EnrollmentResponse{}, ErrForbidden
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		CourseID:   course.ID,
		StudentID:  actor.ID,
		EnrolledAt: s.now(),
	}

	if err := s.courses.Enroll(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("student_id", actor.ID).Msg("student enrolled")

	if s.activity != nil {
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "course.enrolled",
			EntityType: "course",
			EntityID:   &course.ID,
			Metadata:   map[string]interface{}{"course_code": course.Code},
		})
	}

	return dto.EnrollmentResponse{
		CourseID:   enrollment.CourseID,
		StudentID:  enrollment.StudentID,
		EnrolledAt: enrollment.EnrolledAt,
	}, nil
}

func (s *courseService) getCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}
