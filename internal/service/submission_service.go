package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/observability"
	"github.com/classworks/lms-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateSubmission indicates the student already submitted.
	ErrDuplicateSubmission = errors.New("assignment has already been submitted")
	// ErrAssignmentPastDue indicates the deadline has passed.
	ErrAssignmentPastDue = errors.New("assignment is past due")
)

// GradeOutOfRangeError reports an invalid grade along with the assignment's
// actual bound.
type GradeOutOfRangeError struct {
	TotalPoints float64
}

func (e GradeOutOfRangeError) Error() string {
	return fmt.Sprintf("grade must be a number between 0 and %g", e.TotalPoints)
}

// SubmissionService orchestrates submission and grading workflows.
type SubmissionService interface {
	List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Submit(ctx context.Context, actor Actor, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	uploader    FileUploader
	events      EventPublisher
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	courses repository.CourseRepository,
	validate *validator.Validate,
	uploader FileUploader,
	events EventPublisher,
	activity ActivityRecorder,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		uploader:    uploader,
		events:      events,
		activity:    activity,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	// Students only ever see their own submissions.
	if actor.IsStudent() {
		studentID := actor.ID
		filter.StudentID = &studentID
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	if !actor.IsStudent() && !actor.IsAdmin() {
		scoped := submissions[:0]
		for _, submission := range submissions {
			if submission.Assignment.TeacherID == actor.ID {
				scoped = append(scoped, submission)
			}
		}
		submissions = scoped
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Submit stores a student's file for one assignment. The unique index on
// (assignment_id, student_id) makes concurrent duplicate submits collapse
// into a single conflict error.
func (s *submissionService) Submit(ctx context.Context, actor Actor, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	if err := validateFileType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	fileURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		FileURL:      fileURL,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  s.now(),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("assignment_id", assignment.ID).Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

// Grade attaches a grade and feedback to one submission. The grade must be
// numeric and within [0, assignment.TotalPoints]; re-grading overwrites.
func (s *submissionService) Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/classworks/lms-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.grade")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if !actor.IsAdmin() && submission.Assignment.TeacherID != actor.ID {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SubmissionResponse{}, ErrForbidden
	}

	grade, err := strconv.ParseFloat(strings.TrimSpace(payload.Grade), 64)
	if err != nil || math.IsNaN(grade) || math.IsInf(grade, 0) || grade < 0 || grade > submission.Assignment.TotalPoints {
		rangeErr := GradeOutOfRangeError{TotalPoints: submission.Assignment.TotalPoints}
		span.RecordError(rangeErr)
		span.SetStatus(codes.Error, "grade_out_of_range")
		return dto.SubmissionResponse{}, rangeErr
	}

	gradedAt := s.now()
	gradedBy := actor.ID
	submission.Grade = &grade
	submission.Feedback = payload.Feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionGradings().Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("grade", grade).
		Msg("submission graded")

	if s.events != nil {
		s.events.Publish(EventSubmissionGraded, map[string]interface{}{
			"submission_id": submission.ID,
			"student_id":    submission.StudentID,
			"assignment_id": submission.AssignmentID,
			"grade":         grade,
		})
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"student_id":    submission.StudentID,
				"assignment_id": submission.AssignmentID,
				"grade":         grade,
			},
		})
	}

	span.SetAttributes(attribute.Float64("grading.grade", grade))

	return dto.NewSubmissionResponse(submission), nil
}
