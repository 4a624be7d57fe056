package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.nextID
	m.users[m.nextID] = *user
	m.nextID++
	return nil
}

type memoryCourseRepo struct {
	courses     map[uint]models.Course
	enrollments map[uint]map[uint]bool
	nextID      uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{
		courses:     make(map[uint]models.Course),
		enrollments: make(map[uint]map[uint]bool),
		nextID:      1,
	}
}

func (m *memoryCourseRepo) ListAll(_ context.Context) ([]models.Course, error) {
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		results = append(results, course)
	}
	return results, nil
}

func (m *memoryCourseRepo) ListByTeacher(_ context.Context, teacherID uint) ([]models.Course, error) {
	results := make([]models.Course, 0)
	for _, course := range m.courses {
		if course.TeacherID == teacherID {
			results = append(results, course)
		}
	}
	return results, nil
}

func (m *memoryCourseRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Course, error) {
	results := make([]models.Course, 0)
	for id, course := range m.courses {
		if m.enrollments[id][studentID] {
			results = append(results, course)
		}
	}
	return results, nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	course.Enrollments = nil
	for studentID := range m.enrollments[id] {
		course.Enrollments = append(course.Enrollments, models.Enrollment{
			CourseID:  id,
			StudentID: studentID,
		})
	}
	return course, nil
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	for _, existing := range m.courses {
		if existing.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = m.nextID
	m.courses[m.nextID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memoryCourseRepo) Enroll(_ context.Context, enrollment *models.Enrollment) error {
	if m.enrollments[enrollment.CourseID][enrollment.StudentID] {
		return gorm.ErrDuplicatedKey
	}
	if m.enrollments[enrollment.CourseID] == nil {
		m.enrollments[enrollment.CourseID] = make(map[uint]bool)
	}
	m.enrollments[enrollment.CourseID][enrollment.StudentID] = true
	return nil
}

func (m *memoryCourseRepo) IsEnrolled(_ context.Context, courseID, studentID uint) (bool, error) {
	return m.enrollments[courseID][studentID], nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if assignment.CourseID == courseID {
			results = append(results, assignment)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) ListByTeacher(_ context.Context, teacherID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if assignment.TeacherID == teacherID {
			results = append(results, assignment)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) ListByCourses(_ context.Context, courseIDs []uint) ([]models.Assignment, error) {
	wanted := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	results := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if wanted[assignment.CourseID] {
			results = append(results, assignment)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	m.assignments[m.nextID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	assignments *memoryAssignmentRepo
	nextID      uint
}

func newMemorySubmissionRepo(assignments *memoryAssignmentRepo) *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		assignments: assignments,
		nextID:      1,
	}
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, m.withAssignment(submission))
	}
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return m.withAssignment(submission), nil
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) withAssignment(submission models.Submission) models.Submission {
	if m.assignments != nil {
		if assignment, ok := m.assignments.assignments[submission.AssignmentID]; ok {
			submission.Assignment = assignment
		}
	}
	return submission
}

type memoryQuizRepo struct {
	quizzes map[uint]models.Quiz
	results map[uint]map[uint]models.QuizResult
	nextID  uint
}

func newMemoryQuizRepo() *memoryQuizRepo {
	return &memoryQuizRepo{
		quizzes: make(map[uint]models.Quiz),
		results: make(map[uint]map[uint]models.QuizResult),
		nextID:  1,
	}
}

func (m *memoryQuizRepo) ListByCourse(_ context.Context, courseID uint, publishedOnly bool) ([]models.Quiz, error) {
	results := make([]models.Quiz, 0)
	for _, quiz := range m.quizzes {
		if quiz.CourseID == courseID && (!publishedOnly || quiz.Published) {
			results = append(results, quiz)
		}
	}
	return results, nil
}

func (m *memoryQuizRepo) ListByTeacher(_ context.Context, teacherID uint) ([]models.Quiz, error) {
	results := make([]models.Quiz, 0)
	for _, quiz := range m.quizzes {
		if quiz.TeacherID == teacherID {
			results = append(results, quiz)
		}
	}
	return results, nil
}

func (m *memoryQuizRepo) ListByCourses(_ context.Context, courseIDs []uint, publishedOnly bool) ([]models.Quiz, error) {
	wanted := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	results := make([]models.Quiz, 0)
	for _, quiz := range m.quizzes {
		if wanted[quiz.CourseID] && (!publishedOnly || quiz.Published) {
			results = append(results, quiz)
		}
	}
	return results, nil
}

func (m *memoryQuizRepo) GetByID(_ context.Context, id uint) (models.Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (m *memoryQuizRepo) Create(_ context.Context, quiz *models.Quiz) error {
	quiz.ID = m.nextID
	m.quizzes[m.nextID] = *quiz
	m.nextID++
	return nil
}

func (m *memoryQuizRepo) Update(_ context.Context, quiz *models.Quiz) error {
	existing, ok := m.quizzes[quiz.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.Questions = existing.Questions
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *memoryQuizRepo) ReplaceQuestions(_ context.Context, quizID uint, questions []models.Question) error {
	quiz, ok := m.quizzes[quizID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.Questions = questions
	m.quizzes[quizID] = quiz
	return nil
}

func (m *memoryQuizRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.quizzes, id)
	return nil
}

func (m *memoryQuizRepo) CreateResult(_ context.Context, result *models.QuizResult) error {
	if _, ok := m.results[result.QuizID][result.StudentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if m.results[result.QuizID] == nil {
		m.results[result.QuizID] = make(map[uint]models.QuizResult)
	}
	result.ID = m.nextID
	m.nextID++
	m.results[result.QuizID][result.StudentID] = *result
	return nil
}

func (m *memoryQuizRepo) GetResult(_ context.Context, quizID, studentID uint) (models.QuizResult, error) {
	result, ok := m.results[quizID][studentID]
	if !ok {
		return models.QuizResult{}, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (m *memoryQuizRepo) HasResults(_ context.Context, quizID uint) (bool, error) {
	return len(m.results[quizID]) > 0, nil
}

type capturedEvent struct {
	Subject string
	Payload interface{}
}

type captureEventPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *captureEventPublisher) Publish(subject string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Subject: subject, Payload: payload})
}

type noopActivityRecorder struct{}

func (noopActivityRecorder) Record(context.Context, ActivityEntry) error { return nil }

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
