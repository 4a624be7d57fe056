package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
)

func newCourseServiceForTest(courses *memoryCourseRepo) CourseService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewCourseService(courses, validate, noopActivityRecorder{}, testLogger())
}

func TestCourseCreateRequiresTeacherRole(t *testing.T) {
	svc := newCourseServiceForTest(newMemoryCourseRepo())

	payload := dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"}

	_, err := svc.Create(context.Background(), Actor{ID: 42, Role: models.RoleStudent}, payload)
	require.ErrorIs(t, err, ErrForbidden)

	created, err := svc.Create(context.Background(), Actor{ID: 10, Role: models.RoleTeacher}, payload)
	require.NoError(t, err)
	require.Equal(t, uint(10), created.TeacherID)
}

func TestCourseCreateRejectsDuplicateCode(t *testing.T) {
	svc := newCourseServiceForTest(newMemoryCourseRepo())
	teacher := Actor{ID: 10, Role: models.RoleTeacher}

	_, err := svc.Create(context.Background(), teacher, dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), teacher, dto.CourseCreateRequest{Title: "Algorithms again", Code: "CS201"})
	require.ErrorIs(t, err, ErrCourseCodeTaken)
}

func TestCourseEnrollRejectsDuplicate(t *testing.T) {
	courses := newMemoryCourseRepo()
	svc := newCourseServiceForTest(courses)

	teacher := Actor{ID: 10, Role: models.RoleTeacher}
	created, err := svc.Create(context.Background(), teacher, dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"})
	require.NoError(t, err)

	student := Actor{ID: 42, Role: models.RoleStudent}
	_, err = svc.Enroll(context.Background(), student, created.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), student, created.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestCourseEnrollRejectsTeachers(t *testing.T) {
	courses := newMemoryCourseRepo()
	svc := newCourseServiceForTest(courses)

	teacher := Actor{ID: 10, Role: models.RoleTeacher}
	created, err := svc.Create(context.Background(), teacher, dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), teacher, created.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCourseUpdateRequiresOwnership(t *testing.T) {
	courses := newMemoryCourseRepo()
	svc := newCourseServiceForTest(courses)

	owner := Actor{ID: 10, Role: models.RoleTeacher}
	created, err := svc.Create(context.Background(), owner, dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"})
	require.NoError(t, err)

	title := "Renamed"
	_, err = svc.Update(context.Background(), Actor{ID: 99, Role: models.RoleTeacher}, created.ID, dto.CourseUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, created.ID, dto.CourseUpdateRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
}

func TestCourseListIsRoleScoped(t *testing.T) {
	courses := newMemoryCourseRepo()
	svc := newCourseServiceForTest(courses)

	first := Actor{ID: 10, Role: models.RoleTeacher}
	second := Actor{ID: 11, Role: models.RoleTeacher}

	mine, err := svc.Create(context.Background(), first, dto.CourseCreateRequest{Title: "Algorithms", Code: "CS201"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), second, dto.CourseCreateRequest{Title: "Databases", Code: "CS301"})
	require.NoError(t, err)

	student := Actor{ID: 42, Role: models.RoleStudent}
	_, err = svc.Enroll(context.Background(), student, mine.ID)
	require.NoError(t, err)

	teacherView, err := svc.List(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, teacherView, 1)
	require.Equal(t, "CS201", teacherView[0].Code)

	studentView, err := svc.List(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, studentView, 1)
	require.Equal(t, mine.ID, studentView[0].ID)

	adminView, err := svc.List(context.Background(), Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, adminView, 2)
}

func TestAccessGuards(t *testing.T) {
	course := models.Course{
		ID:        1,
		TeacherID: 10,
		Enrollments: []models.Enrollment{
			{CourseID: 1, StudentID: 42},
		},
	}

	require.True(t, CanManageCourse(Actor{ID: 10, Role: models.RoleTeacher}, course))
	require.True(t, CanManageCourse(Actor{ID: 1, Role: models.RoleAdmin}, course))
	require.False(t, CanManageCourse(Actor{ID: 11, Role: models.RoleTeacher}, course))
	require.False(t, CanManageCourse(Actor{ID: 42, Role: models.RoleStudent}, course))

	require.True(t, CanReadCourse(Actor{ID: 42, Role: models.RoleStudent}, course))
	require.False(t, CanReadCourse(Actor{ID: 43, Role: models.RoleStudent}, course))
}
