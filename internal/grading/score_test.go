package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classworks/lms-api/internal/models"
)

func TestScoreSingleQuestionQuiz(t *testing.T) {
	questions := []models.Question{singleQuestion(1, 5)}

	outcome := Score(questions, []AnswerSubmission{{QuestionID: 1, SelectedOptionIDs: []string{"A"}}})
	require.Equal(t, 5.0, outcome.Score)
	require.Equal(t, 5.0, outcome.TotalPoints)
	require.Len(t, outcome.Records, 1)
	require.True(t, outcome.Records[0].Correct)

	outcome = Score(questions, []AnswerSubmission{{QuestionID: 1, SelectedOptionIDs: []string{"B"}}})
	require.Equal(t, 0.0, outcome.Score)
	require.Equal(t, 5.0, outcome.TotalPoints)
	require.False(t, outcome.Records[0].Correct)
}

func TestScoreSkipsUnknownQuestions(t *testing.T) {
	questions := []models.Question{
		singleQuestion(1, 5),
		textQuestion(2, 3, "go"),
	}

	answers := []AnswerSubmission{
		{QuestionID: 1, SelectedOptionIDs: []string{"A"}},
		{QuestionID: 99, TextAnswer: "ignored"},
	}

	outcome := Score(questions, answers)
	require.Equal(t, 5.0, outcome.Score)
	require.Equal(t, 5.0, outcome.TotalPoints, "unknown question must not contribute to the total")
	require.Len(t, outcome.Records, 1)
}

func TestScoreTotalCoversAnsweredQuestionsOnly(t *testing.T) {
	questions := []models.Question{
		singleQuestion(1, 5),
		multipleQuestion(2, 3),
		textQuestion(3, 2, "go"),
	}

	// Question 3 receives no answer and contributes to neither side.
	answers := []AnswerSubmission{
		{QuestionID: 1, SelectedOptionIDs: []string{"B"}},
		{QuestionID: 2, SelectedOptionIDs: []string{"A", "C"}},
	}

	outcome := Score(questions, answers)
	require.Equal(t, 3.0, outcome.Score)
	require.Equal(t, 8.0, outcome.TotalPoints)
	require.LessOrEqual(t, outcome.Score, outcome.TotalPoints)
}

func TestScoreEchoesSubmittedAnswers(t *testing.T) {
	questions := []models.Question{textQuestion(7, 1, "mitochondria")}

	outcome := Score(questions, []AnswerSubmission{{QuestionID: 7, TextAnswer: "  Mitochondria "}})
	require.Len(t, outcome.Records, 1)
	require.Equal(t, "  Mitochondria ", outcome.Records[0].TextAnswer, "submitted text is echoed verbatim")
	require.True(t, outcome.Records[0].Correct)
}

func TestScoreEmptyAnswerSet(t *testing.T) {
	questions := []models.Question{singleQuestion(1, 5)}

	outcome := Score(questions, nil)
	require.Equal(t, 0.0, outcome.Score)
	require.Equal(t, 0.0, outcome.TotalPoints)
	require.Empty(t, outcome.Records)
}
