package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/models"
)

func makeFileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

type submissionFixture struct {
	svc         *submissionService
	courses     *memoryCourseRepo
	assignments *memoryAssignmentRepo
	submissions *memorySubmissionRepo
	events      *captureEventPublisher
	course      models.Course
	assignment  models.Assignment
}

func newSubmissionFixture(t *testing.T, deadline time.Time, totalPoints float64) *submissionFixture {
	t.Helper()

	courses := newMemoryCourseRepo()
	assignments := newMemoryAssignmentRepo()
	submissions := newMemorySubmissionRepo(assignments)
	events := &captureEventPublisher{}

	course := models.Course{Title: "Algorithms", Code: "CS201", TeacherID: 10}
	require.NoError(t, courses.Create(context.Background(), &course))

	assignment := models.Assignment{
		CourseID:    course.ID,
		TeacherID:   course.TeacherID,
		Title:       "Homework 1",
		Deadline:    deadline,
		TotalPoints: totalPoints,
	}
	require.NoError(t, assignments.Create(context.Background(), &assignment))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(submissions, assignments, courses, validate, stubUploader{}, events, noopActivityRecorder{}, testLogger())

	return &submissionFixture{
		svc:         svc.(*submissionService),
		courses:     courses,
		assignments: assignments,
		submissions: submissions,
		events:      events,
		course:      course,
		assignment:  assignment,
	}
}

func (f *submissionFixture) enroll(t *testing.T, studentID uint) {
	t.Helper()
	require.NoError(t, f.courses.Enroll(context.Background(), &models.Enrollment{CourseID: f.course.ID, StudentID: studentID}))
}

func TestSubmissionSubmitAndGradeFlow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
	f.svc.now = fixedClock(now)

	student := Actor{ID: 42, Role: models.RoleStudent}
	f.enroll(t, student.ID)

	submitted, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "my answers"))
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submitted.Status)
	require.Nil(t, submitted.Grade)

	teacher := Actor{ID: 10, Role: models.RoleTeacher}
	graded, err := f.svc.Grade(context.Background(), teacher, submitted.ID, dto.GradeRequest{Grade: "87.5", Feedback: "solid work"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)
	require.NotNil(t, graded.Grade)
	require.Equal(t, 87.5, *graded.Grade)
	require.Equal(t, "solid work", graded.Feedback)
	require.NotNil(t, graded.GradedAt)

	require.Len(t, f.events.events, 1)
	require.Equal(t, EventSubmissionGraded, f.events.events[0].Subject)
}

func TestSubmissionGradeBounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		grade   string
		wantErr bool
	}{
		{name: "zero accepted", grade: "0"},
		{name: "maximum accepted", grade: "100"},
		{name: "above maximum rejected", grade: "101", wantErr: true},
		{name: "negative rejected", grade: "-1", wantErr: true},
		{name: "non-numeric rejected", grade: "abc", wantErr: true},
		{name: "NaN rejected", grade: "NaN", wantErr: true},
		{name: "infinity rejected", grade: "+Inf", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
			f.svc.now = fixedClock(now)

			student := Actor{ID: 42, Role: models.RoleStudent}
			f.enroll(t, student.ID)
			submitted, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "answers"))
			require.NoError(t, err)

			teacher := Actor{ID: 10, Role: models.RoleTeacher}
			_, err = f.svc.Grade(context.Background(), teacher, submitted.ID, dto.GradeRequest{Grade: tc.grade})
			if tc.wantErr {
				var rangeErr GradeOutOfRangeError
				require.ErrorAs(t, err, &rangeErr)
				require.Equal(t, 100.0, rangeErr.TotalPoints)
				require.Contains(t, rangeErr.Error(), "between 0 and 100")

				stored, getErr := f.submissions.GetByID(context.Background(), submitted.ID)
				require.NoError(t, getErr)
				require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
				require.Nil(t, stored.Grade)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSubmissionRegradeOverwrites(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 50)
	f.svc.now = fixedClock(now)

	student := Actor{ID: 42, Role: models.RoleStudent}
	f.enroll(t, student.ID)
	submitted, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "answers"))
	require.NoError(t, err)

	teacher := Actor{ID: 10, Role: models.RoleTeacher}
	_, err = f.svc.Grade(context.Background(), teacher, submitted.ID, dto.GradeRequest{Grade: "30"})
	require.NoError(t, err)

	regraded, err := f.svc.Grade(context.Background(), teacher, submitted.ID, dto.GradeRequest{Grade: "45", Feedback: "after appeal"})
	require.NoError(t, err)
	require.Equal(t, 45.0, *regraded.Grade)
	require.Equal(t, "after appeal", regraded.Feedback)
}

func TestSubmissionSubmitRejectsDuplicate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
	f.svc.now = fixedClock(now)

	student := Actor{ID: 42, Role: models.RoleStudent}
	f.enroll(t, student.ID)

	_, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "first"))
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "second"))
	require.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestSubmissionSubmitRejectsPastDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(-time.Minute), 100)
	f.svc.now = fixedClock(now)

	student := Actor{ID: 42, Role: models.RoleStudent}
	f.enroll(t, student.ID)

	_, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "late"))
	require.ErrorIs(t, err, ErrAssignmentPastDue)
}

func TestSubmissionSubmitRequiresEnrollment(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
	f.svc.now = fixedClock(now)

	_, err := f.svc.Submit(context.Background(), Actor{ID: 42, Role: models.RoleStudent}, f.assignment.ID, makeFileHeader(t, "hw1.txt", "answers"))
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestSubmissionGradeRequiresOwnership(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
	f.svc.now = fixedClock(now)

	student := Actor{ID: 42, Role: models.RoleStudent}
	f.enroll(t, student.ID)
	submitted, err := f.svc.Submit(context.Background(), student, f.assignment.ID, makeFileHeader(t, "hw1.txt", "answers"))
	require.NoError(t, err)

	otherTeacher := Actor{ID: 77, Role: models.RoleTeacher}
	_, err = f.svc.Grade(context.Background(), otherTeacher, submitted.ID, dto.GradeRequest{Grade: "10"})
	require.ErrorIs(t, err, ErrForbidden)

	admin := Actor{ID: 1, Role: models.RoleAdmin}
	_, err = f.svc.Grade(context.Background(), admin, submitted.ID, dto.GradeRequest{Grade: "10"})
	require.NoError(t, err)
}

func TestSubmissionListScopes(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newSubmissionFixture(t, now.Add(24*time.Hour), 100)
	f.svc.now = fixedClock(now)

	first := Actor{ID: 42, Role: models.RoleStudent}
	second := Actor{ID: 43, Role: models.RoleStudent}
	f.enroll(t, first.ID)
	f.enroll(t, second.ID)

	_, err := f.svc.Submit(context.Background(), first, f.assignment.ID, makeFileHeader(t, "a.txt", "one"))
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), second, f.assignment.ID, makeFileHeader(t, "b.txt", "two"))
	require.NoError(t, err)

	// A student sees only their own submission regardless of filters.
	mine, err := f.svc.List(context.Background(), first, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, first.ID, mine[0].StudentID)

	// The owning teacher sees both.
	teacher := Actor{ID: 10, Role: models.RoleTeacher}
	all, err := f.svc.List(context.Background(), teacher, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	// A different teacher sees none of them.
	other, err := f.svc.List(context.Background(), Actor{ID: 77, Role: models.RoleTeacher}, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Empty(t, other)
}
