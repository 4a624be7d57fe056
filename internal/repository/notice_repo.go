package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/models"
)

// NoticeRepository defines persistence operations for course notices.
type NoticeRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Notice, error)
	GetByID(ctx context.Context, id uint) (models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id uint) error
}

type noticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository instantiates a GORM-backed repository.
func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Notice, error) {
	var notices []models.Notice
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&notices).Error; err != nil {
		return nil, err
	}

	return notices, nil
}

func (r *noticeRepository) GetByID(ctx context.Context, id uint) (models.Notice, error) {
	var notice models.Notice
	if err := r.db.WithContext(ctx).First(&notice, id).Error; err != nil {
		return models.Notice{}, err
	}

	return notice, nil
}

func (r *noticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Save(notice).Error
}

func (r *noticeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Notice{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
