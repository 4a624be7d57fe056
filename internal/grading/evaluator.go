// Package grading contains the pure quiz evaluation logic. It performs no
// I/O so the scoring rules can be tested in isolation from the service layer.
package grading

import (
	"strings"

	"github.com/classworks/lms-api/internal/models"
)

// AnswerSubmission is one submitted answer keyed by question id. Choice
// questions carry selected option ids, text questions a free-text string.
type AnswerSubmission struct {
	QuestionID        uint
	SelectedOptionIDs []string
	TextAnswer        string
}

// Evaluate decides whether the submitted answer is correct for the given
// question. It has no side effects and never fails; malformed input is
// simply incorrect.
func Evaluate(question models.Question, answer AnswerSubmission) bool {
	switch question.Type {
	case models.QuestionTypeSingle:
		return evaluateSingle(question, answer)
	case models.QuestionTypeMultiple:
		return evaluateMultiple(question, answer)
	case models.QuestionTypeText:
		return evaluateText(question, answer)
	default:
		return false
	}
}

func evaluateSingle(question models.Question, answer AnswerSubmission) bool {
	if len(answer.SelectedOptionIDs) != 1 {
		return false
	}

	selected := answer.SelectedOptionIDs[0]
	for _, option := range question.OptionList() {
		if option.ID == selected {
			return option.IsCorrect
		}
	}

	return false
}

func evaluateMultiple(question models.Question, answer AnswerSubmission) bool {
	correct := make(map[string]struct{})
	for _, option := range question.OptionList() {
		if option.IsCorrect {
			correct[option.ID] = struct{}{}
		}
	}

	// A multiple question with no correct options can never be answered
	// correctly.
	if len(correct) == 0 {
		return false
	}

	selected := make(map[string]struct{}, len(answer.SelectedOptionIDs))
	for _, id := range answer.SelectedOptionIDs {
		selected[id] = struct{}{}
	}

	if len(selected) != len(correct) {
		return false
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return false
		}
	}

	return true
}

func evaluateText(question models.Question, answer AnswerSubmission) bool {
	submitted := normalizeText(answer.TextAnswer)
	if submitted == "" {
		return false
	}

	for _, accepted := range question.AcceptedAnswers() {
		if normalizeText(accepted) == submitted {
			return true
		}
	}

	return false
}

func normalizeText(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
