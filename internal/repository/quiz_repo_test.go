package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/models"
)

func TestQuizRepositoryCreateResultRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	teacher, student, course := seedCourse(t, db)

	quiz := models.Quiz{CourseID: course.ID, TeacherID: teacher.ID, Title: "Midterm", Published: true}
	require.NoError(t, repo.Create(context.Background(), &quiz))

	first := models.QuizResult{QuizID: quiz.ID, StudentID: student.ID, Score: 5, TotalPoints: 5, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateResult(context.Background(), &first))

	second := models.QuizResult{QuizID: quiz.ID, StudentID: student.ID, Score: 3, TotalPoints: 5, SubmittedAt: time.Now()}
	err := repo.CreateResult(context.Background(), &second)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	stored, err := repo.GetResult(context.Background(), quiz.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, 5.0, stored.Score, "first result must remain untouched")
}

func TestQuizRepositoryQuestionsOrderedByPosition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	teacher, _, course := seedCourse(t, db)

	quiz := models.Quiz{CourseID: course.ID, TeacherID: teacher.ID, Title: "Final"}
	second := models.Question{Position: 2, Text: "Second", Type: models.QuestionTypeText, Points: 1}
	second.SetAcceptedAnswers([]string{"two"})
	first := models.Question{Position: 1, Text: "First", Type: models.QuestionTypeText, Points: 1}
	first.SetAcceptedAnswers([]string{"one"})
	quiz.Questions = []models.Question{second, first}
	require.NoError(t, repo.Create(context.Background(), &quiz))

	loaded, err := repo.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	require.Equal(t, "First", loaded.Questions[0].Text)
	require.Equal(t, "Second", loaded.Questions[1].Text)
}

func TestQuizRepositoryReplaceQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	teacher, _, course := seedCourse(t, db)

	quiz := models.Quiz{CourseID: course.ID, TeacherID: teacher.ID, Title: "Quiz"}
	original := models.Question{Position: 1, Text: "Old", Type: models.QuestionTypeText, Points: 1}
	original.SetAcceptedAnswers([]string{"old"})
	quiz.Questions = []models.Question{original}
	require.NoError(t, repo.Create(context.Background(), &quiz))

	replacement := models.Question{Position: 1, Text: "New", Type: models.QuestionTypeText, Points: 2}
	replacement.SetAcceptedAnswers([]string{"new"})
	require.NoError(t, repo.ReplaceQuestions(context.Background(), quiz.ID, []models.Question{replacement}))

	loaded, err := repo.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 1)
	require.Equal(t, "New", loaded.Questions[0].Text)
}

func TestSubmissionRepositoryCreateRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	teacher, student, course := seedCourse(t, db)

	assignment := models.Assignment{
		CourseID:    course.ID,
		TeacherID:   teacher.ID,
		Title:       "Essay",
		Deadline:    time.Now().Add(time.Hour),
		TotalPoints: 100,
	}
	require.NoError(t, db.Create(&assignment).Error)

	first := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FileURL:      "uploads/submissions/a.pdf",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FileURL:      "uploads/submissions/b.pdf",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
	}
	err := repo.Create(context.Background(), &second)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}
