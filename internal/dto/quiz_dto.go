package dto

import (
	"time"

	"github.com/classworks/lms-api/internal/models"
)

// QuestionOptionRequest is one choice option in a quiz create/update payload.
type QuestionOptionRequest struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest describes one question in a quiz create/update payload.
// Structural rules (option counts per type) are enforced by the quiz service.
type QuestionRequest struct {
	Text            string                  `json:"text" validate:"required"`
	Type            string                  `json:"type" validate:"required,oneof=single multiple text"`
	Options         []QuestionOptionRequest `json:"options" validate:"dive"`
	AcceptedAnswers []string                `json:"accepted_answers"`
	Points          float64                 `json:"points" validate:"required,gt=0"`
	Explanation     string                  `json:"explanation"`
}

// QuizCreateRequest describes the payload for creating a quiz.
type QuizCreateRequest struct {
	CourseID      uint              `json:"course_id" validate:"required,gt=0"`
	Title         string            `json:"title" validate:"required,min=3"`
	Description   string            `json:"description"`
	TimeLimit     *int              `json:"time_limit" validate:"omitempty,gt=0"`
	AvailableFrom *time.Time        `json:"available_from"`
	AvailableTo   *time.Time        `json:"available_to"`
	Published     bool              `json:"published"`
	Questions     []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizUpdateRequest describes the payload for updating quiz metadata.
// Replacing the question list is only permitted before any result exists.
type QuizUpdateRequest struct {
	Title         *string           `json:"title" validate:"omitempty,min=3"`
	Description   *string           `json:"description"`
	TimeLimit     *int              `json:"time_limit" validate:"omitempty,gt=0"`
	AvailableFrom *time.Time        `json:"available_from"`
	AvailableTo   *time.Time        `json:"available_to"`
	Published     *bool             `json:"published"`
	Questions     []QuestionRequest `json:"questions" validate:"omitempty,min=1,dive"`
}

// QuizAnswer is one submitted answer in a quiz submission payload.
type QuizAnswer struct {
	QuestionID        uint     `json:"question_id" validate:"required,gt=0"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
	TextAnswer        string   `json:"text_answer"`
}

// QuizSubmitRequest carries a student's full answer set for one quiz.
type QuizSubmitRequest struct {
	Answers   []QuizAnswer `json:"answers" validate:"required,dive"`
	StartedAt *time.Time   `json:"started_at"`
}

// QuestionOptionView is an option as shown to students: correctness withheld.
type QuestionOptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionStudentView serializes a question without correct-answer data.
type QuestionStudentView struct {
	ID       uint                 `json:"id"`
	Position int                  `json:"position"`
	Text     string               `json:"text"`
	Type     string               `json:"type"`
	Options  []QuestionOptionView `json:"options,omitempty"`
	Points   float64              `json:"points"`
}

// QuestionTeacherView serializes a question including correctness flags and
// accepted answers.
type QuestionTeacherView struct {
	ID              uint                    `json:"id"`
	Position        int                     `json:"position"`
	Text            string                  `json:"text"`
	Type            string                  `json:"type"`
	Options         []QuestionOptionRequest `json:"options,omitempty"`
	AcceptedAnswers []string                `json:"accepted_answers,omitempty"`
	Points          float64                 `json:"points"`
	Explanation     string                  `json:"explanation,omitempty"`
}

// QuizResponse is the quiz representation returned to API clients. Questions
// hold either student or teacher views depending on the caller's role.
type QuizResponse struct {
	ID            uint        `json:"id"`
	CourseID      uint        `json:"course_id"`
	TeacherID     uint        `json:"teacher_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	TimeLimit     *int        `json:"time_limit"`
	AvailableFrom *time.Time  `json:"available_from"`
	AvailableTo   *time.Time  `json:"available_to"`
	Published     bool        `json:"published"`
	Questions     interface{} `json:"questions,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// QuizResultResponse serializes a scored quiz attempt.
type QuizResultResponse struct {
	ID             uint                  `json:"id"`
	QuizID         uint                  `json:"quiz_id"`
	StudentID      uint                  `json:"student_id"`
	Answers        []models.AnswerRecord `json:"answers"`
	Score          float64               `json:"score"`
	TotalPoints    float64               `json:"total_points"`
	SubmittedAt    time.Time             `json:"submitted_at"`
	ElapsedSeconds *int                  `json:"elapsed_seconds"`
}

func newQuizResponse(model models.Quiz) QuizResponse {
	return QuizResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		TeacherID:     model.TeacherID,
		Title:         model.Title,
		Description:   model.Description,
		TimeLimit:     model.TimeLimit,
		AvailableFrom: model.AvailableFrom,
		AvailableTo:   model.AvailableTo,
		Published:     model.Published,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewQuizStudentResponse converts a quiz into its student-facing DTO,
// withholding correctness flags and accepted answers.
func NewQuizStudentResponse(model models.Quiz) QuizResponse {
	response := newQuizResponse(model)

	if len(model.Questions) > 0 {
		questions := make([]QuestionStudentView, 0, len(model.Questions))
		for _, question := range model.Questions {
			view := QuestionStudentView{
				ID:       question.ID,
				Position: question.Position,
				Text:     question.Text,
				Type:     question.Type,
				Points:   question.Points,
			}
			for _, option := range question.OptionList() {
				view.Options = append(view.Options, QuestionOptionView{ID: option.ID, Text: option.Text})
			}
			questions = append(questions, view)
		}
		response.Questions = questions
	}

	return response
}

// NewQuizTeacherResponse converts a quiz into its teacher-facing DTO.
func NewQuizTeacherResponse(model models.Quiz) QuizResponse {
	response := newQuizResponse(model)

	if len(model.Questions) > 0 {
		questions := make([]QuestionTeacherView, 0, len(model.Questions))
		for _, question := range model.Questions {
			view := QuestionTeacherView{
				ID:              question.ID,
				Position:        question.Position,
				Text:            question.Text,
				Type:            question.Type,
				AcceptedAnswers: question.AcceptedAnswers(),
				Points:          question.Points,
				Explanation:     question.Explanation,
			}
			for _, option := range question.OptionList() {
				view.Options = append(view.Options, QuestionOptionRequest{
					ID:        option.ID,
					Text:      option.Text,
					IsCorrect: option.IsCorrect,
				})
			}
			questions = append(questions, view)
		}
		response.Questions = questions
	}

	return response
}

// NewQuizStudentResponseSlice converts quizzes into student-facing DTOs.
func NewQuizStudentResponseSlice(quizzes []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, NewQuizStudentResponse(quiz))
	}

	return responses
}

// NewQuizTeacherResponseSlice converts quizzes into teacher-facing DTOs.
func NewQuizTeacherResponseSlice(quizzes []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, NewQuizTeacherResponse(quiz))
	}

	return responses
}

// NewQuizResultResponse converts a result model into a DTO.
func NewQuizResultResponse(model models.QuizResult) QuizResultResponse {
	return QuizResultResponse{
		ID:             model.ID,
		QuizID:         model.QuizID,
		StudentID:      model.StudentID,
		Answers:        model.AnswerList(),
		Score:          model.Score,
		TotalPoints:    model.TotalPoints,
		SubmittedAt:    model.SubmittedAt,
		ElapsedSeconds: model.ElapsedSeconds,
	}
}
