package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/grading"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/observability"
	"github.com/classworks/lms-api/internal/repository"
)

var (
	// ErrQuizNotFound indicates a quiz could not be located.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnavailable indicates the quiz is unpublished or outside its window.
	ErrQuizUnavailable = errors.New("quiz is not available")
	// ErrDuplicateResult indicates the student already submitted this quiz.
	ErrDuplicateResult = errors.New("quiz has already been submitted")
	// ErrResultNotFound indicates no scored attempt exists yet.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrQuizLocked indicates the question list cannot change after results exist.
	ErrQuizLocked = errors.New("quiz already has results and cannot be modified")
	// ErrInvalidQuestions indicates a question payload failed structural validation.
	ErrInvalidQuestions = errors.New("invalid questions")
)

// QuizService orchestrates quiz CRUD and the scoring pipeline.
type QuizService interface {
	ListForTeacher(ctx context.Context, actor Actor) ([]dto.QuizResponse, error)
	ListForStudent(ctx context.Context, actor Actor) ([]dto.QuizResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.QuizResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.QuizUpdateRequest) (dto.QuizResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Submit(ctx context.Context, actor Actor, id uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error)
	Result(ctx context.Context, actor Actor, id uint) (dto.QuizResultResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	events    EventPublisher
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService constructs a QuizService instance.
func NewQuizService(
	quizzes repository.QuizRepository,
	courses repository.CourseRepository,
	validate *validator.Validate,
	events EventPublisher,
	activity ActivityRecorder,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		quizzes:   quizzes,
		courses:   courses,
		validator: validate,
		events:    events,
		activity:  activity,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

func (s *quizService) ListForTeacher(ctx context.Context, actor Actor) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.ListByTeacher(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuizTeacherResponseSlice(quizzes), nil
}

func (s *quizService) ListForStudent(ctx context.Context, actor Actor) ([]dto.QuizResponse, error) {
	courses, err := s.courses.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	quizzes, err := s.quizzes.ListByCourses(ctx, courseIDs, true)
	if err != nil {
		return nil, err
	}

	return dto.NewQuizStudentResponseSlice(quizzes), nil
}

func (s *quizService) Get(ctx context.Context, actor Actor, id uint) (dto.QuizResponse, error) {
	quiz, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	if CanManageCourse(actor, course) {
		return dto.NewQuizTeacherResponse(quiz), nil
	}

	if !course.HasStudent(actor.ID) {
		return dto.QuizResponse{}, ErrForbidden
	}

	if !quiz.Published {
		return dto.QuizResponse{}, ErrQuizUnavailable
	}

	return dto.NewQuizStudentResponse(quiz), nil
}

func (s *quizService) Create(ctx context.Context, actor Actor, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrCourseNotFound
		}
		return dto.QuizResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.QuizResponse{}, ErrForbidden
	}

	questions, err := buildQuestions(payload.Questions)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{
		CourseID:      course.ID,
		TeacherID:     course.TeacherID,
		Title:         payload.Title,
		Description:   payload.Description,
		TimeLimit:     payload.TimeLimit,
		AvailableFrom: payload.AvailableFrom,
		AvailableTo:   payload.AvailableTo,
		Published:     payload.Published,
		Questions:     questions,
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("course_id", course.ID).Int("questions", len(questions)).Msg("quiz created")

	return dto.NewQuizTeacherResponse(quiz), nil
}

func (s *quizService) Update(ctx context.Context, actor Actor, id uint, payload dto.QuizUpdateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.QuizResponse{}, ErrForbidden
	}

	// Validate the question swap before touching anything so a rejected
	// request leaves the quiz untouched.
	var questions []models.Question
	if payload.Questions != nil {
		hasResults, err := s.quizzes.HasResults(ctx, quiz.ID)
		if err != nil {
			return dto.QuizResponse{}, err
		}
		if hasResults {
			return dto.QuizResponse{}, ErrQuizLocked
		}

		questions, err = buildQuestions(payload.Questions)
		if err != nil {
			return dto.QuizResponse{}, err
		}
	}

	if payload.Title != nil {
		quiz.Title = *payload.Title
	}
	if payload.Description != nil {
		quiz.Description = *payload.Description
	}
	if payload.TimeLimit != nil {
		quiz.TimeLimit = payload.TimeLimit
	}
	if payload.AvailableFrom != nil {
		quiz.AvailableFrom = payload.AvailableFrom
	}
	if payload.AvailableTo != nil {
		quiz.AvailableTo = payload.AvailableTo
	}
	if payload.Published != nil {
		quiz.Published = *payload.Published
	}

	if err := s.quizzes.Update(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	if payload.Questions != nil {
		if err := s.quizzes.ReplaceQuestions(ctx, quiz.ID, questions); err != nil {
			return dto.QuizResponse{}, err
		}
	}

	updated, err := s.quizzes.GetByID(ctx, quiz.ID)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizTeacherResponse(updated), nil
}

func (s *quizService) Delete(ctx context.Context, actor Actor, id uint) error {
	_, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(actor, course) {
		return ErrForbidden
	}

	return s.quizzes.Delete(ctx, id)
}

// Submit runs the scoring pipeline for one student's full answer set. The
// preconditions are checked in order; the first failure wins. The duplicate
// check is additionally backed by the unique (quiz_id, student_id) index so
// two concurrent submits cannot both persist.
func (s *quizService) Submit(ctx context.Context, actor Actor, id uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error) {
	tracer := otel.Tracer("github.com/classworks/lms-api/internal/service/quiz")
	ctx, span := tracer.Start(ctx, "quiz.score")
	span.SetAttributes(
		attribute.Int64("quiz.id", int64(id)),
		attribute.Int64("quiz.student_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.QuizResultResponse{}, err
	}

	if !actor.IsStudent() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.QuizResultResponse{}, ErrForbidden
	}

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "quiz_not_found")
		return dto.QuizResultResponse{}, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, quiz.CourseID, actor.ID)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}
	if !enrolled {
		span.SetStatus(codes.Error, "not_enrolled")
		return dto.QuizResultResponse{}, ErrNotEnrolled
	}

	if !quiz.Published {
		span.SetStatus(codes.Error, "unpublished")
		return dto.QuizResultResponse{}, ErrQuizUnavailable
	}

	now := s.now()
	if !quiz.IsAvailableAt(now) {
		span.SetStatus(codes.Error, "outside_window")
		return dto.QuizResultResponse{}, ErrQuizUnavailable
	}

	if _, err := s.quizzes.GetResult(ctx, quiz.ID, actor.ID); err == nil {
		span.SetStatus(codes.Error, "duplicate_result")
		return dto.QuizResultResponse{}, ErrDuplicateResult
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	answers := make([]grading.AnswerSubmission, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		answers = append(answers, grading.AnswerSubmission{
			QuestionID:        answer.QuestionID,
			SelectedOptionIDs: answer.SelectedOptionIDs,
			TextAnswer:        answer.TextAnswer,
		})
	}

	outcome := grading.Score(quiz.Questions, answers)

	result := models.QuizResult{
		QuizID:      quiz.ID,
		StudentID:   actor.ID,
		Score:       outcome.Score,
		TotalPoints: outcome.TotalPoints,
		SubmittedAt: now,
	}
	result.SetAnswers(outcome.Records)

	if payload.StartedAt != nil && now.After(*payload.StartedAt) {
		elapsed := int(now.Sub(*payload.StartedAt).Seconds())
		result.ElapsedSeconds = &elapsed
	}

	if err := s.quizzes.CreateResult(ctx, &result); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			span.SetStatus(codes.Error, "duplicate_result")
			return dto.QuizResultResponse{}, ErrDuplicateResult
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_persist_failed")
		return dto.QuizResultResponse{}, err
	}

	observability.QuizScorings().Inc()

	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Uint("student_id", actor.ID).
		Float64("score", outcome.Score).
		Float64("total", outcome.TotalPoints).
		Msg("quiz scored")

	if s.events != nil {
		s.events.Publish(EventQuizScored, map[string]interface{}{
			"quiz_id":      quiz.ID,
			"student_id":   actor.ID,
			"score":        outcome.Score,
			"total_points": outcome.TotalPoints,
		})
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "quiz.submitted",
			EntityType: "quiz",
			EntityID:   &quiz.ID,
			Metadata: map[string]interface{}{
				"score":        outcome.Score,
				"total_points": outcome.TotalPoints,
			},
		})
	}

	span.SetAttributes(
		attribute.Float64("quiz.score", outcome.Score),
		attribute.Float64("quiz.total_points", outcome.TotalPoints),
	)

	return dto.NewQuizResultResponse(result), nil
}

// Result returns the caller's own scored attempt.
func (s *quizService) Result(ctx context.Context, actor Actor, id uint) (dto.QuizResultResponse, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return dto.QuizResultResponse{}, err
	}

	result, err := s.quizzes.GetResult(ctx, quiz.ID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResultResponse{}, ErrResultNotFound
		}
		return dto.QuizResultResponse{}, err
	}

	return dto.NewQuizResultResponse(result), nil
}

func (s *quizService) getQuiz(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (s *quizService) getWithCourse(ctx context.Context, id uint) (models.Quiz, models.Course, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return models.Quiz{}, models.Course{}, err
	}

	course, err := s.courses.GetByID(ctx, quiz.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, models.Course{}, ErrCourseNotFound
		}
		return models.Quiz{}, models.Course{}, err
	}

	return quiz, course, nil
}

// buildQuestions converts question payloads into models, enforcing the
// structural rules: choice questions need at least two options, text
// questions at least one accepted answer. Missing option ids are generated.
func buildQuestions(payloads []dto.QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(payloads))
	for i, payload := range payloads {
		question := models.Question{
			Position:    i + 1,
			Text:        payload.Text,
			Type:        payload.Type,
			Points:      payload.Points,
			Explanation: payload.Explanation,
		}

		switch payload.Type {
		case models.QuestionTypeSingle, models.QuestionTypeMultiple:
			if len(payload.Options) < 2 {
				return nil, fmt.Errorf("%w: question %d: choice questions require at least 2 options", ErrInvalidQuestions, i+1)
			}
			options := make([]models.QuestionOption, 0, len(payload.Options))
			for j, option := range payload.Options {
				id := option.ID
				if id == "" {
					id = strconv.Itoa(j+1) + "-" + uuid.NewString()[:8]
				}
				options = append(options, models.QuestionOption{
					ID:        id,
					Text:      option.Text,
					IsCorrect: option.IsCorrect,
				})
			}
			question.SetOptions(options)
		case models.QuestionTypeText:
			if len(payload.AcceptedAnswers) == 0 {
				return nil, fmt.Errorf("%w: question %d: text questions require at least 1 accepted answer", ErrInvalidQuestions, i+1)
			}
			question.SetAcceptedAnswers(payload.AcceptedAnswers)
		default:
			return nil, fmt.Errorf("%w: question %d: unknown type %q", ErrInvalidQuestions, i+1, payload.Type)
		}

		questions = append(questions, question)
	}

	return questions, nil
}
