package review

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/ai/recovery"
	"github.com/spigell/careerboost/internal/normalize"
)

type stubInvoker struct {
	result     ai.Result
	prompt     string
	structured bool
	temp       float32
}

func (s *stubInvoker) Invoke(_ context.Context, prompt, _ string, temperature float32, structured bool) ai.Result {
	s.prompt = prompt
	s.structured = structured
	s.temp = temperature
	return s.result
}

func TestReview(t *testing.T) {
	raw := `{"score": 82, "strengths": ["Go"], "issues": ["no metrics"], "improved_bullets": ["Built X"], "keywords": ["REST"], "summary": "Solid."}`
	obj, err := recovery.Recover(raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	invoker := &stubInvoker{result: ai.Success(raw, obj)}
	svc := NewService(invoker, zap.NewNop())

	got := svc.Review(context.Background(), "  Go developer resume  ", "")
	if got.Score != 82 || got.Summary != "Solid." || got.Issues[0] != "no metrics" {
		t.Fatalf("unexpected review: %+v", got)
	}
	if !invoker.structured || invoker.temp != temperature {
		t.Fatalf("expected structured call at %v", temperature)
	}
	if !strings.Contains(invoker.prompt, "Целевая роль: "+noRole) || !strings.Contains(invoker.prompt, `"""Go developer resume"""`) {
		t.Fatalf("unexpected prompt:\n%s", invoker.prompt)
	}
}

func TestReviewFailureCarriesDiagnostic(t *testing.T) {
	for _, kind := range []ai.FailureKind{ai.FailureTransport, ai.FailureMalformed} {
		invoker := &stubInvoker{result: ai.Failed(&ai.Failure{Kind: kind})}
		got := NewService(invoker, zap.NewNop()).Review(context.Background(), "resume", "QA")

		if got.Score != normalize.ResumeScoreFallback || got.Summary != normalize.SummaryFallback {
			t.Fatalf("%s: expected defaults, got %+v", kind, got)
		}
		if len(got.Issues) != 1 || !strings.Contains(got.Issues[0], string(kind)) {
			t.Fatalf("%s: expected diagnostic issue, got %#v", kind, got.Issues)
		}
		if got.Strengths == nil || got.Keywords == nil || got.ImprovedBullets == nil {
			t.Fatalf("%s: lists must be present", kind)
		}
	}
}

func TestAnalyze(t *testing.T) {
	raw := `{"score": "50", "improved_bullets": ["a", "b"], "issues": ["x"]}`
	obj, _ := recovery.Recover(raw)
	svc := NewService(&stubInvoker{result: ai.Success(raw, obj)}, zap.NewNop())

	got := svc.Analyze(context.Background(), "resume", "Go Intern")
	if got.OverallScore != 50 || got.StructureScore != 45 || got.GrammarScore != 49 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if len(got.Recommendations) != 2 || got.Weaknesses[0] != "x" || len(got.Strengths) != 0 {
		t.Fatalf("unexpected lists: %+v", got)
	}
}
