package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classworks/lms-api/internal/config"
	"github.com/classworks/lms-api/internal/handler"
	"github.com/classworks/lms-api/internal/middleware"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
	"github.com/classworks/lms-api/internal/router"
	"github.com/classworks/lms-api/internal/service"
)

const testSecret = "integration-test-secret"

type integrationUploader struct{}

func (integrationUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizResult{},
		&models.Material{},
		&models.Notice{},
		&models.ActivityLog{},
	))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	uploader := integrationUploader{}
	events := service.NewNATSPublisher(nil, logger)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, validate, testSecret, time.Hour, logger)
	courseService := service.NewCourseService(courseRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, uploader, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, courseRepo, validate, uploader, events, activityService, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, validate, events, activityService, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, uploader, validate, logger)
	noticeService := service.NewNoticeService(noticeRepo, courseRepo, uploader, validate, nil, time.Minute, events, activityService, logger)

	cfg := config.Config{AppName: "Classworks LMS API", AppEnv: "test"}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		MaterialHandler:   handler.NewMaterialHandler(materialService, logger),
		NoticeHandler:     handler.NewNoticeHandler(noticeService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret),
	})

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func registerUser(t *testing.T, app *fiber.App, name, email, role string) string {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"super-secret-pw","role":%q}`, name, email, role)
	resp, payload := doJSON(t, app, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func multipartRequest(t *testing.T, path, token string, fields map[string]string, fileName, fileContent string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestEnrollmentAndQuizFlow(t *testing.T) {
	app := setupApp(t)

	teacherToken := registerUser(t, app, "Grace", "grace@example.com", "teacher")
	studentToken := registerUser(t, app, "Alan", "alan@example.com", "student")

	// Teacher creates a course.
	resp, payload := doJSON(t, app, http.MethodPost, "/api/courses", teacherToken,
		`{"title":"Computability","code":"CS410","description":"Turing machines and beyond"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &course))

	// Student enrolls once, then hits the uniqueness constraint.
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), studentToken, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), studentToken, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.False(t, payload.Success)

	// Teacher publishes a quiz with one of each question type.
	quizBody := fmt.Sprintf(`{
		"course_id": %d,
		"title": "Halting problems",
		"published": true,
		"questions": [
			{"text": "Decidable?", "type": "single", "points": 2, "options": [
				{"id": "a", "text": "yes"},
				{"id": "b", "text": "no", "is_correct": true}
			]},
			{"text": "Select regular languages", "type": "multiple", "points": 3, "options": [
				{"id": "a", "text": "a*b*", "is_correct": true},
				{"id": "b", "text": "a^n b^n"},
				{"id": "c", "text": "(ab)*", "is_correct": true}
			]},
			{"text": "Who proposed the machine model?", "type": "text", "points": 1, "accepted_answers": ["turing", "alan turing"]}
		]
	}`, course.ID)
	resp, payload = doJSON(t, app, http.MethodPost, "/api/quizzes", teacherToken, quizBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var quiz struct {
		ID        uint `json:"id"`
		Questions []struct {
			ID uint `json:"id"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &quiz))
	require.Len(t, quiz.Questions, 3)

	// The role-scoped list routes resolve as paths, not as quiz ids.
	resp, payload = doJSON(t, app, http.MethodGet, "/api/quizzes/teacher", teacherToken, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var teacherQuizzes []json.RawMessage
	require.NoError(t, json.Unmarshal(payload.Data, &teacherQuizzes))
	require.Len(t, teacherQuizzes, 1)

	resp, payload = doJSON(t, app, http.MethodGet, "/api/quizzes/student", studentToken, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var studentQuizzes []json.RawMessage
	require.NoError(t, json.Unmarshal(payload.Data, &studentQuizzes))
	require.Len(t, studentQuizzes, 1)

	// The student view must not leak correctness flags.
	resp, payload = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), studentToken, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotContains(t, string(payload.Data), "is_correct")
	require.NotContains(t, string(payload.Data), "accepted_answers")

	// Student submits: single correct, multiple exact, text matches.
	submitBody := fmt.Sprintf(`{
		"started_at": %q,
		"answers": [
			{"question_id": %d, "selected_option_ids": ["b"]},
			{"question_id": %d, "selected_option_ids": ["c", "a"]},
			{"question_id": %d, "text_answer": " Alan TURING "}
		]
	}`, time.Now().UTC().Add(-2*time.Minute).Format(time.RFC3339),
		quiz.Questions[0].ID, quiz.Questions[1].ID, quiz.Questions[2].ID)

	resp, payload = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), studentToken, submitBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result struct {
		Score       float64 `json:"score"`
		TotalPoints float64 `json:"total_points"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, 6.0, result.Score)
	require.Equal(t, 6.0, result.TotalPoints)

	// Second attempt collides with the stored result.
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), studentToken, submitBody)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// The stored result is retrievable.
	resp, payload = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/quizzes/%d/result", quiz.ID), studentToken, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, 6.0, result.Score)
}

func TestAssignmentSubmissionAndGradingFlow(t *testing.T) {
	app := setupApp(t)

	teacherToken := registerUser(t, app, "Grace", "grace2@example.com", "teacher")
	studentToken := registerUser(t, app, "Alan", "alan2@example.com", "student")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/courses", teacherToken,
		`{"title":"Compilers","code":"CS420"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &course))

	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), studentToken, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Teacher creates an assignment due tomorrow worth 100 points.
	deadline := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	req := multipartRequest(t, "/api/assignments", teacherToken, map[string]string{
		"course_id":    fmt.Sprintf("%d", course.ID),
		"title":        "Parser homework",
		"deadline":     deadline,
		"total_points": "100",
	}, "", "")
	httpResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, httpResp.StatusCode)

	var assignmentEnvelope envelope
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&assignmentEnvelope))
	var assignment struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(assignmentEnvelope.Data, &assignment))

	// Student submits a file.
	req = multipartRequest(t, fmt.Sprintf("/api/assignments/%d/submit", assignment.ID), studentToken,
		nil, "parser.txt", "my grammar handles left recursion")
	httpResp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, httpResp.StatusCode)

	var submissionEnvelope envelope
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&submissionEnvelope))
	var submission struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(submissionEnvelope.Data, &submission))
	require.Equal(t, "submitted", submission.Status)

	// Duplicate submission is a conflict.
	req = multipartRequest(t, fmt.Sprintf("/api/assignments/%d/submit", assignment.ID), studentToken,
		nil, "parser.txt", "second try")
	httpResp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, httpResp.StatusCode)

	// Out-of-range and non-numeric grades are rejected with the bound named.
	gradePath := fmt.Sprintf("/api/submissions/%d/grade", submission.ID)
	resp, payload = doJSON(t, app, http.MethodPatch, gradePath, teacherToken, `{"grade":"150"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, payload.Message, "between 0 and 100")

	resp, payload = doJSON(t, app, http.MethodPatch, gradePath, teacherToken, `{"grade":"abc"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, payload.Message, "between 0 and 100")

	// A valid grade lands and the student can read it back.
	resp, payload = doJSON(t, app, http.MethodPatch, gradePath, teacherToken, `{"grade":"92.5","feedback":"clean build"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodGet, "/api/submissions", studentToken, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []struct {
		Grade    *float64 `json:"grade"`
		Status   string   `json:"status"`
		Feedback string   `json:"feedback"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "graded", listed[0].Status)
	require.NotNil(t, listed[0].Grade)
	require.Equal(t, 92.5, *listed[0].Grade)
	require.Equal(t, "clean build", listed[0].Feedback)
}
