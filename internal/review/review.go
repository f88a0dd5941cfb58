// Package review scores resumes and suggests improvements.
package review

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/ai/recovery"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/normalize"
	"github.com/spigell/careerboost/internal/utils"
)

const (
	temperature  = 0.2
	systemPrompt = "Ты карьерный ассистент. Отвечай по-русски. Верни ТОЛЬКО валидный JSON. Никакого текста вне JSON. Никаких markdown и ```."
	noRole       = "не указана"
)

//go:embed prompt.md
var promptTemplate string

type Service struct {
	invoker ai.Invoker
	logger  *zap.Logger
}

func NewService(invoker ai.Invoker, log *zap.Logger) *Service {
	return &Service{
		invoker: invoker,
		logger:  logger.ForUseCase(log, "resume"),
	}
}

// Review returns a fully populated review. When the model call fails the
// defaulted review carries a diagnostic entry in Issues.
func (s *Service) Review(ctx context.Context, resumeText, targetRole string) normalize.ResumeReview {
	role := strings.TrimSpace(targetRole)
	if role == "" {
		role = noRole
	}

	prompt := utils.FillTemplate(promptTemplate, map[string]string{
		"TARGET_ROLE": role,
		"RESUME_TEXT": strings.TrimSpace(resumeText),
	})

	res := s.invoker.Invoke(ctx, prompt, systemPrompt, temperature, true)
	if !res.OK() {
		failure := res.Failure()
		s.logger.Warn("resume review fell back to defaults", zap.String("reason", string(failure.Kind)))

		review := normalize.Resume(recovery.Object{})
		review.Issues = normalize.CapList(append([]string{diagnostic(failure)}, review.Issues...), normalize.IssuesLimit)
		return review
	}

	review := normalize.Resume(res.Object())
	s.logger.Debug("resume reviewed", zap.Int("score", review.Score))

	return review
}

// Analyze returns the analysis view of Review.
func (s *Service) Analyze(ctx context.Context, resumeText, targetRole string) normalize.ResumeAnalysis {
	return normalize.Analysis(s.Review(ctx, resumeText, targetRole))
}

func diagnostic(f *ai.Failure) string {
	switch f.Kind {
	case ai.FailureMalformed:
		return fmt.Sprintf("Ответ модели не удалось разобрать (%s). Показаны значения по умолчанию.", f.Kind)
	default:
		return fmt.Sprintf("Сервис анализа временно недоступен (%s). Показаны значения по умолчанию.", f.Kind)
	}
}
