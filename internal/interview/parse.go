package interview

import (
	"strconv"
	"strings"

	"github.com/spigell/careerboost/internal/normalize"
)

const (
	FallbackFeedback     = "Фидбек не распознан. Ответ принят."
	FallbackNextQuestion = "Расскажите подробнее о вашем опыте и проектах по этой роли."

	feedbackLabel     = "FEEDBACK:"
	scoreLabel        = "SCORE:"
	nextQuestionLabel = "NEXT_QUESTION:"
)

// TurnResult is the evaluation of one answer.
type TurnResult struct {
	NextQuestion string `json:"next_question"`
	Feedback     string `json:"feedback"`
	Score        int    `json:"score"`
}

// ParseTurn reads the FEEDBACK / SCORE / NEXT_QUESTION lines of a model reply.
// Labels match case-insensitively and later lines win. Missing lines get fallbacks,
// so the result is always complete.
func ParseTurn(text string) TurnResult {
	var res TurnResult

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "*#-> ")
		if line == "" {
			continue
		}

		if value, ok := cutLabel(line, feedbackLabel); ok {
			res.Feedback = value
		} else if value, ok := cutLabel(line, scoreLabel); ok {
			res.Score = parseScore(value)
		} else if value, ok := cutLabel(line, nextQuestionLabel); ok {
			res.NextQuestion = value
		}
	}

	if res.Feedback == "" {
		res.Feedback = FallbackFeedback
	}
	if res.NextQuestion == "" {
		res.NextQuestion = FallbackNextQuestion
	}
	res.Score = normalize.Clamp(res.Score)

	return res
}

func cutLabel(line, label string) (string, bool) {
	if len(line) < len(label) || !strings.EqualFold(line[:len(label)], label) {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(line[len(label):], "* ")), true
}

// parseScore keeps only the digits of value. No digits means 0; overflow means the maximum.
func parseScore(value string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)

	if digits == "" {
		return 0
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return normalize.MaxScore
	}
	return n
}
