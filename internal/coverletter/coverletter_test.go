package coverletter

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/ai/recovery"
	"github.com/spigell/careerboost/internal/normalize"
)

type stubInvoker struct {
	result ai.Result
	prompt string
	temp   float32
}

func (s *stubInvoker) Invoke(_ context.Context, prompt, _ string, temperature float32, _ bool) ai.Result {
	s.prompt = prompt
	s.temp = temperature
	return s.result
}

func TestGenerate(t *testing.T) {
	raw := "```json\n{\"letter\": \"Уважаемая команда Kaspi...\", \"short_email\": \"Здравствуйте!\"}\n```"
	obj, err := recovery.Recover(raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	invoker := &stubInvoker{result: ai.Success(raw, obj)}

	got := NewService(invoker, zap.NewNop()).Generate(context.Background(), Request{
		ResumeText:     "Go, SQL",
		JobTitle:       "Backend Intern",
		Company:        "Kaspi",
		JobDescription: "REST API",
	})

	if got.Letter != "Уважаемая команда Kaspi..." || got.ShortEmail != "Здравствуйте!" {
		t.Fatalf("unexpected letter: %+v", got)
	}
	if invoker.temp != temperature {
		t.Fatalf("unexpected temperature %v", invoker.temp)
	}
	for _, want := range []string{"Тон: " + DefaultTone, "Должность: Backend Intern", "Компания: Kaspi"} {
		if !strings.Contains(invoker.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, invoker.prompt)
		}
	}
}

func TestGenerateFallback(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	invoker := &stubInvoker{result: ai.Failed(&ai.Failure{Kind: ai.FailureTransport, Message: "timeout"})}

	got := NewService(invoker, zap.New(core)).Generate(context.Background(), Request{Tone: "friendly"})
	if got.Letter != normalize.LetterFallback || got.ShortEmail != normalize.ShortEmailFallback {
		t.Fatalf("unexpected fallback: %+v", got)
	}
	if !strings.Contains(invoker.prompt, "Тон: friendly") {
		t.Fatalf("tone not forwarded")
	}

	entries := observed.All()
	if len(entries) != 1 || entries[0].ContextMap()["use_case"] != "cover_letter" {
		t.Fatalf("expected one tagged warning, got %+v", entries)
	}
}
