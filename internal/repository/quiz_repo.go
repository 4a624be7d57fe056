package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/models"
)

// QuizRepository defines persistence operations for quizzes and results.
type QuizRepository interface {
	ListByCourse(ctx context.Context, courseID uint, publishedOnly bool) ([]models.Quiz, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Quiz, error)
	ListByCourses(ctx context.Context, courseIDs []uint, publishedOnly bool) ([]models.Quiz, error)
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	ReplaceQuestions(ctx context.Context, quizID uint, questions []models.Question) error
	Delete(ctx context.Context, id uint) error
	CreateResult(ctx context.Context, result *models.QuizResult) error
	GetResult(ctx context.Context, quizID, studentID uint) (models.QuizResult, error)
	HasResults(ctx context.Context, quizID uint) (bool, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates a GORM-backed repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Quiz{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		})
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID uint, publishedOnly bool) ([]models.Quiz, error) {
	query := r.baseQuery(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var quizzes []models.Quiz
	if err := query.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.baseQuery(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) ListByCourses(ctx context.Context, courseIDs []uint, publishedOnly bool) ([]models.Quiz, error) {
	if len(courseIDs) == 0 {
		return []models.Quiz{}, nil
	}

	query := r.baseQuery(ctx).Where("course_id IN ?", courseIDs)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var quizzes []models.Quiz
	if err := query.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.baseQuery(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Omit("Questions", "Results").Save(quiz).Error
}

// ReplaceQuestions swaps the quiz's question list inside one transaction.
func (r *quizRepository) ReplaceQuestions(ctx context.Context, quizID uint, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quizID
		}

		if len(questions) == 0 {
			return nil
		}

		return tx.Create(&questions).Error
	})
}

func (r *quizRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Quiz{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateResult inserts the scored attempt. The composite unique index on
// (quiz_id, student_id) turns a concurrent duplicate submission into
// gorm.ErrDuplicatedKey.
func (r *quizRepository) CreateResult(ctx context.Context, result *models.QuizResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *quizRepository) GetResult(ctx context.Context, quizID, studentID uint) (models.QuizResult, error) {
	var result models.QuizResult
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		First(&result).Error; err != nil {
		return models.QuizResult{}, err
	}

	return result, nil
}

func (r *quizRepository) HasResults(ctx context.Context, quizID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuizResult{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
