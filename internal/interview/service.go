// Package interview runs multi-turn mock interviews on top of the model gateway.
package interview

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/session"
	"github.com/spigell/careerboost/internal/utils"
)

// ErrUnknownSession is returned by Turn for ids that were never issued or have expired.
var ErrUnknownSession = errors.New("unknown interview session")

const (
	DefaultLevel         = "intern"
	DefaultHistoryWindow = 10

	FallbackOpeningQuestion = "Расскажите о себе и о том, почему вас интересует эта роль."
	FallbackTurnFeedback    = "Не удалось получить оценку ответа. Ответ сохранён, продолжим интервью."

	startTemperature = 0.3
	turnTemperature  = 0.2
	noFocus          = "не задан"

	// Prompt shares for history entries; the newest entry gets the larger one.
	historyEntryLimit = 700
	answerLimit       = 2000
)

var (
	//go:embed prompts/system.md
	systemPrompt string
	//go:embed prompts/start.md
	startTemplate string
	//go:embed prompts/turn.md
	turnTemplate string
	//go:embed prompts/evaluate.md
	evaluateTemplate string
)

type StartResult struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

type Config struct {
	// HistoryWindow is how many trailing history entries go into a turn prompt.
	HistoryWindow int
}

type Service struct {
	invoker ai.Invoker
	store   session.Store
	locks   *session.Locker
	window  int
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(invoker ai.Invoker, store session.Store, cfg Config, log *zap.Logger) *Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}

	return &Service{
		invoker: invoker,
		store:   store,
		locks:   session.NewLocker(),
		window:  cfg.HistoryWindow,
		now:     time.Now,
		logger:  logger.ForUseCase(log, "interview"),
	}
}

// Start opens a session and asks the model for the first question. A failed
// model call still creates the session with a fixed opening question.
func (s *Service) Start(ctx context.Context, role, level, focus string) (StartResult, error) {
	role = strings.TrimSpace(role)
	if level = strings.TrimSpace(level); level == "" {
		level = DefaultLevel
	}
	focus = strings.TrimSpace(focus)

	sess := session.New(role, level, focus, s.now())
	log := s.logger.With(zap.String(logger.FieldSessionID, sess.ID))

	prompt := utils.FillTemplate(startTemplate, map[string]string{
		"ROLE":  role,
		"LEVEL": level,
		"FOCUS": orDefault(focus, noFocus),
	})

	question := FallbackOpeningQuestion
	if res := s.invoker.Invoke(ctx, prompt, systemPrompt, startTemperature, false); res.OK() {
		if text := utils.SingleLine(res.Text()); text != "" {
			question = text
		}
	} else {
		log.Warn("opening question fell back", zap.String("reason", string(res.Failure().Kind)))
	}

	sess.Append(session.SpeakerAssistant, question, s.now())

	if err := s.store.Put(ctx, sess); err != nil {
		return StartResult{}, fmt.Errorf("store session: %w", err)
	}

	log.Info("interview started", zap.String("role", role), zap.String("level", level))

	return StartResult{SessionID: sess.ID, FirstQuestion: question}, nil
}

// Turn records the answer, asks the model to evaluate it and stores the next
// question. Turns on the same session are serialized.
func (s *Service) Turn(ctx context.Context, sessionID, answer string) (TurnResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return TurnResult{}, ErrUnknownSession
	}
	if err != nil {
		return TurnResult{}, fmt.Errorf("load session: %w", err)
	}

	log := s.logger.With(zap.String(logger.FieldSessionID, sess.ID))

	sess.Append(session.SpeakerUser, strings.TrimSpace(answer), s.now())

	values := map[string]string{
		"CONTEXT": "",
		"ROLE":    sess.Role,
		"LEVEL":   sess.Level,
		"FOCUS":   orDefault(sess.Focus, noFocus),
	}
	budget := ai.DefaultPromptLimit - utf8.RuneCountInString(utils.FillTemplate(turnTemplate, values))
	values["CONTEXT"] = renderHistory(sess.Window(s.window), budget)
	prompt := utils.FillTemplate(turnTemplate, values)

	var result TurnResult
	if res := s.invoker.Invoke(ctx, prompt, systemPrompt, turnTemperature, false); res.OK() {
		result = ParseTurn(res.Text())
	} else {
		log.Warn("turn evaluation fell back", zap.String("reason", string(res.Failure().Kind)))
		result = TurnResult{
			NextQuestion: FallbackNextQuestion,
			Feedback:     FallbackTurnFeedback,
			Score:        0,
		}
	}

	sess.Append(session.SpeakerAssistant, result.NextQuestion, s.now())
	sess.LastScore = result.Score

	if err := s.store.Put(ctx, sess); err != nil {
		return TurnResult{}, fmt.Errorf("store session: %w", err)
	}

	log.Debug("interview turn evaluated", zap.Int("score", result.Score), zap.Int("history", len(sess.History)))

	return result, nil
}

// Evaluate scores a single answer without any session state.
func (s *Service) Evaluate(ctx context.Context, question, answer, role string) TurnResult {
	prompt := utils.FillTemplate(evaluateTemplate, map[string]string{
		"ROLE":     orDefault(strings.TrimSpace(role), "не указана"),
		"QUESTION": utils.TruncateRunes(strings.TrimSpace(question), historyEntryLimit),
		"ANSWER":   utils.TruncateRunes(strings.TrimSpace(answer), answerLimit),
	})

	res := s.invoker.Invoke(ctx, prompt, systemPrompt, turnTemperature, false)
	if !res.OK() {
		s.logger.Warn("answer evaluation fell back", zap.String("reason", string(res.Failure().Kind)))
		return TurnResult{
			NextQuestion: FallbackNextQuestion,
			Feedback:     FallbackTurnFeedback,
			Score:        0,
		}
	}

	return ParseTurn(res.Text())
}

// renderHistory writes one "Вопрос:"/"Ответ:" line per entry. Entries are cut to
// their share and the oldest lines are dropped until the text fits budget runes.
// The newest entry is always kept.
func renderHistory(history []session.Message, budget int) string {
	lines := make([]string, 0, len(history))
	for i, m := range history {
		prefix := "Ответ"
		if m.Speaker == session.SpeakerAssistant {
			prefix = "Вопрос"
		}

		limit := historyEntryLimit
		if i == len(history)-1 {
			limit = answerLimit
		}

		content := utils.SingleLine(utils.TruncateRunes(strings.TrimSpace(m.Content), limit))
		lines = append(lines, prefix+": "+content)
	}

	for len(lines) > 1 && utf8.RuneCountInString(strings.Join(lines, "\n")) > budget {
		lines = lines[1:]
	}

	return strings.Join(lines, "\n")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
