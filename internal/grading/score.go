package grading

import "github.com/classworks/lms-api/internal/models"

// Outcome is the aggregate result of scoring one full answer set.
type Outcome struct {
	Records     []models.AnswerRecord
	Score       float64
	TotalPoints float64
}

// Score evaluates every submitted answer against the quiz questions and
// accumulates the achieved and total possible points. Answers referencing an
// unknown question id are skipped: they produce no record and contribute to
// neither side of the score. The total therefore covers exactly the questions
// that had a matching submitted answer.
func Score(questions []models.Question, answers []AnswerSubmission) Outcome {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	outcome := Outcome{Records: make([]models.AnswerRecord, 0, len(answers))}
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}

		correct := Evaluate(question, answer)
		outcome.TotalPoints += question.Points
		if correct {
			outcome.Score += question.Points
		}

		outcome.Records = append(outcome.Records, models.AnswerRecord{
			QuestionID:        answer.QuestionID,
			SelectedOptionIDs: answer.SelectedOptionIDs,
			TextAnswer:        answer.TextAnswer,
			Correct:           correct,
		})
	}

	return outcome
}
