package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Quiz represents an auto-scored test attached to a course.
type Quiz struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	CourseID      uint         `gorm:"not null;index" json:"course_id"`
	TeacherID     uint         `gorm:"not null;index" json:"teacher_id"`
	Title         string       `gorm:"size:255;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	TimeLimit     *int         `json:"time_limit"`
	AvailableFrom *time.Time   `json:"available_from"`
	AvailableTo   *time.Time   `json:"available_to"`
	Published     bool         `gorm:"not null;default:false" json:"published"`
	Questions     []Question   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
	Results       []QuizResult `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"results,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsAvailableAt reports whether the quiz window is open at the given instant.
// A nil AvailableTo leaves the window unbounded on the right.
func (q Quiz) IsAvailableAt(reference time.Time) bool {
	if q.AvailableFrom != nil && reference.Before(*q.AvailableFrom) {
		return false
	}
	if q.AvailableTo != nil && reference.After(*q.AvailableTo) {
		return false
	}
	return true
}

const (
	// QuestionTypeSingle has exactly one correct option.
	QuestionTypeSingle = "single"
	// QuestionTypeMultiple requires the exact correct option set.
	QuestionTypeMultiple = "multiple"
	// QuestionTypeText matches a free-text answer against accepted strings.
	QuestionTypeText = "text"
)

// QuestionOption is one selectable choice on a single/multiple question.
type QuestionOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is one ordered entry on a quiz. Options and accepted answers are
// stored as JSON columns.
type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	QuizID      uint           `gorm:"not null;index" json:"quiz_id"`
	Position    int            `gorm:"not null" json:"position"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	Type        string         `gorm:"size:16;not null" json:"type"`
	Options     datatypes.JSON `gorm:"type:json" json:"-"`
	Answers     datatypes.JSON `gorm:"type:json" json:"-"`
	Points      float64        `gorm:"not null" json:"points"`
	Explanation string         `gorm:"type:text" json:"explanation"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SetOptions serializes the option list into the JSON storage column.
func (q *Question) SetOptions(options []QuestionOption) {
	data, err := json.Marshal(options)
	if err != nil {
		q.Options = datatypes.JSON([]byte("[]"))
		return
	}
	q.Options = datatypes.JSON(data)
}

// OptionList deserializes the stored options into a Go slice.
func (q Question) OptionList() []QuestionOption {
	if len(q.Options) == 0 {
		return nil
	}

	var options []QuestionOption
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}

	return options
}

// SetAcceptedAnswers serializes the accepted text answers into the JSON column.
func (q *Question) SetAcceptedAnswers(answers []string) {
	data, err := json.Marshal(answers)
	if err != nil {
		q.Answers = datatypes.JSON([]byte("[]"))
		return
	}
	q.Answers = datatypes.JSON(data)
}

// AcceptedAnswers deserializes the stored accepted text answers.
func (q Question) AcceptedAnswers() []string {
	if len(q.Answers) == 0 {
		return nil
	}

	var answers []string
	if err := json.Unmarshal(q.Answers, &answers); err != nil {
		return nil
	}

	return answers
}

// AnswerRecord captures what a student submitted for one question along with
// the computed correctness, for later display.
type AnswerRecord struct {
	QuestionID        uint     `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	TextAnswer        string   `json:"text_answer,omitempty"`
	Correct           bool     `json:"correct"`
}

// QuizResult is a student's scored, immutable record of one quiz attempt.
// The composite unique index makes a second attempt a constraint violation.
type QuizResult struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	QuizID         uint           `gorm:"not null;uniqueIndex:idx_result_quiz_student" json:"quiz_id"`
	StudentID      uint           `gorm:"not null;uniqueIndex:idx_result_quiz_student" json:"student_id"`
	Answers        datatypes.JSON `gorm:"type:json" json:"-"`
	Score          float64        `gorm:"not null" json:"score"`
	TotalPoints    float64        `gorm:"not null" json:"total_points"`
	SubmittedAt    time.Time      `gorm:"not null" json:"submitted_at"`
	ElapsedSeconds *int           `json:"elapsed_seconds"`
	CreatedAt      time.Time      `json:"created_at"`
	Student        User           `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// SetAnswers serializes the evaluated answer records into the JSON column.
func (r *QuizResult) SetAnswers(records []AnswerRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		r.Answers = datatypes.JSON([]byte("[]"))
		return
	}
	r.Answers = datatypes.JSON(data)
}

// AnswerList deserializes the stored answer records.
func (r QuizResult) AnswerList() []AnswerRecord {
	if len(r.Answers) == 0 {
		return nil
	}

	var records []AnswerRecord
	if err := json.Unmarshal(r.Answers, &records); err != nil {
		return nil
	}

	return records
}
