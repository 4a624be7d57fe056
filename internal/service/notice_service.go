package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
)

// ErrNoticeNotFound indicates a notice could not be located.
var ErrNoticeNotFound = errors.New("notice not found")

// NoticeService exposes course notice operations.
type NoticeService interface {
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.NoticeResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.NoticeResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.NoticeCreateRequest, file *multipart.FileHeader) (dto.NoticeResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.NoticeUpdateRequest) (dto.NoticeResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type noticeService struct {
	notices   repository.NoticeRepository
	courses   repository.CourseRepository
	uploader  FileUploader
	validator *validator.Validate
	cache     *redis.Client
	ttl       time.Duration
	events    EventPublisher
	activity  ActivityRecorder
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewNoticeService constructs a NoticeService instance. The cache client is
// optional; with a nil client every list goes to the database.
func NewNoticeService(
	notices repository.NoticeRepository,
	courses repository.CourseRepository,
	uploader FileUploader,
	validate *validator.Validate,
	cache *redis.Client,
	ttl time.Duration,
	events EventPublisher,
	activity ActivityRecorder,
	logger zerolog.Logger,
) NoticeService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	policy.AllowAttrs("href", "title", "target").OnElements("a")
	return &noticeService{
		notices:   notices,
		courses:   courses,
		uploader:  uploader,
		validator: validate,
		cache:     cache,
		ttl:       ttl,
		events:    events,
		activity:  activity,
		policy:    policy,
		logger:    logger.With().Str("component", "notice_service").Logger(),
	}
}

func (s *noticeService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.NoticeResponse, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if !CanReadCourse(actor, course) {
		return nil, ErrForbidden
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("notices:course:v1:%d", courseID)
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var responses []dto.NoticeResponse
			if err := json.Unmarshal([]byte(cached), &responses); err == nil {
				return responses, nil
			}
		}
	}

	notices, err := s.notices.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := dto.NewNoticeResponseSlice(notices)

	if cacheKey != "" {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache notices")
			}
		}
	}

	return responses, nil
}

func (s *noticeService) Get(ctx context.Context, actor Actor, id uint) (dto.NoticeResponse, error) {
	notice, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.NoticeResponse{}, err
	}

	if !CanReadCourse(actor, course) {
		return dto.NoticeResponse{}, ErrForbidden
	}

	return dto.NewNoticeResponse(notice), nil
}

func (s *noticeService) Create(ctx context.Context, actor Actor, payload dto.NoticeCreateRequest, file *multipart.FileHeader) (dto.NoticeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoticeResponse{}, err
	}

	course, err := s.getCourse(ctx, payload.CourseID)
	if err != nil {
		return dto.NoticeResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.NoticeResponse{}, ErrForbidden
	}

	notice := models.Notice{
		CourseID: course.ID,
		AuthorID: actor.ID,
		Title:    strings.TrimSpace(payload.Title),
		Body:     s.policy.Sanitize(payload.Body),
	}

	switch {
	case file != nil:
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.NoticeResponse{}, err
		}
		notice.Kind = models.ContentKindFile
		notice.FileURL = url
	case payload.ExternalURL != "":
		notice.Kind = models.ContentKindLink
		notice.ExternalURL = payload.ExternalURL
	}

	if err := s.notices.Create(ctx, &notice); err != nil {
		return dto.NoticeResponse{}, err
	}

	s.invalidate(ctx, course.ID)

	s.logger.Info().Uint("notice_id", notice.ID).Uint("course_id", course.ID).Msg("notice posted")

	if s.events != nil {
		s.events.Publish(EventNoticePosted, map[string]interface{}{
			"notice_id": notice.ID,
			"course_id": course.ID,
			"title":     notice.Title,
		})
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "notice.posted",
			EntityType: "notice",
			EntityID:   &notice.ID,
		})
	}

	return dto.NewNoticeResponse(notice), nil
}

func (s *noticeService) Update(ctx context.Context, actor Actor, id uint, payload dto.NoticeUpdateRequest) (dto.NoticeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoticeResponse{}, err
	}

	notice, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return dto.NoticeResponse{}, err
	}

	if !CanManageCourse(actor, course) {
		return dto.NoticeResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		notice.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Body != nil {
		notice.Body = s.policy.Sanitize(*payload.Body)
	}
	if payload.ExternalURL != nil {
		notice.ExternalURL = *payload.ExternalURL
		if notice.ExternalURL != "" {
			notice.Kind = models.ContentKindLink
		}
	}

	if err := s.notices.Update(ctx, &notice); err != nil {
		return dto.NoticeResponse{}, err
	}

	s.invalidate(ctx, course.ID)

	return dto.NewNoticeResponse(notice), nil
}

func (s *noticeService) Delete(ctx context.Context, actor Actor, id uint) error {
	_, course, err := s.getWithCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(actor, course) {
		return ErrForbidden
	}

	if err := s.notices.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, course.ID)

	return nil
}

func (s *noticeService) invalidate(ctx context.Context, courseID uint) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf("notices:course:v1:%d", courseID)
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate notice cache")
	}
}

func (s *noticeService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
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

func (s *noticeService) getCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *noticeService) getWithCourse(ctx context.Context, id uint) (models.Notice, models.Course, error) {
	notice, err := s.notices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Notice{}, models.Course{}, ErrNoticeNotFound
		}
		return models.Notice{}, models.Course{}, err
	}

	course, err := s.getCourse(ctx, notice.CourseID)
	if err != nil {
		return models.Notice{}, models.Course{}, err
	}

	return notice, course, nil
}
