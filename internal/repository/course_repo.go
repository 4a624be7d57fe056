package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/models"
)

// CourseRepository defines persistence operations for courses and enrollments.
type CourseRepository interface {
	ListAll(ctx context.Context) ([]models.Course, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Course, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Course{}).
		Preload("Teacher").
		Preload("Enrollments").
		Preload("Enrollments.Student")
}

func (r *courseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.baseQuery(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.baseQuery(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ?", studentID).
		Order("courses.created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.baseQuery(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Enroll inserts the enrollment row. The composite unique index turns a
// concurrent double enrollment into gorm.ErrDuplicatedKey instead of a
// read-then-write race.
func (r *courseRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
