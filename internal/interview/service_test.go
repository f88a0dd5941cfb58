package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/session"
	"github.com/spigell/careerboost/internal/utils"
)

type call struct {
	prompt      string
	system      string
	temperature float32
	structured  bool
}

type stubInvoker struct {
	mu      sync.Mutex
	calls   []call
	respond func(prompt string) ai.Result
}

func (s *stubInvoker) Invoke(_ context.Context, prompt, system string, temperature float32, structured bool) ai.Result {
	s.mu.Lock()
	s.calls = append(s.calls, call{prompt: prompt, system: system, temperature: temperature, structured: structured})
	s.mu.Unlock()
	return s.respond(prompt)
}

func (s *stubInvoker) last() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func replying(text string) *stubInvoker {
	return &stubInvoker{respond: func(string) ai.Result { return ai.Success(text, nil) }}
}

func failing(kind ai.FailureKind) *stubInvoker {
	return &stubInvoker{respond: func(string) ai.Result {
		return ai.Failed(&ai.Failure{Kind: kind, Message: "context deadline exceeded"})
	}}
}

const turnReply = "FEEDBACK: Хорошо описан проект.\nSCORE: 78\nNEXT_QUESTION: Как вы обрабатывали ошибки в API?"

func TestStartThenTurn(t *testing.T) {
	store := session.NewMemoryStore(0)
	invoker := &stubInvoker{respond: func(prompt string) ai.Result {
		if strings.Contains(prompt, "ПЕРВЫЙ вопрос") {
			return ai.Success("  Расскажите о вашем последнем проекте.\n", nil)
		}
		return ai.Success(turnReply, nil)
	}}
	svc := NewService(invoker, store, Config{}, zap.NewNop())
	ctx := context.Background()

	started, err := svc.Start(ctx, "Backend Engineer Intern", "intern", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.SessionID == "" || started.FirstQuestion != "Расскажите о вашем последнем проекте." {
		t.Fatalf("unexpected start result: %+v", started)
	}

	first := invoker.last()
	if first.temperature != startTemperature || first.structured {
		t.Fatalf("unexpected start call: %+v", first)
	}
	if !strings.Contains(first.prompt, "Роль: Backend Engineer Intern") || !strings.Contains(first.prompt, "Фокус: "+noFocus) {
		t.Fatalf("unexpected start prompt: %s", first.prompt)
	}

	turn, err := svc.Turn(ctx, started.SessionID, "I built a REST API in my last internship")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if turn.Score < 0 || turn.Score > 100 || turn.Feedback == "" || turn.NextQuestion == "" {
		t.Fatalf("unexpected turn result: %+v", turn)
	}
	if turn.Score != 78 {
		t.Fatalf("expected parsed score, got %d", turn.Score)
	}

	second := invoker.last()
	if second.temperature != turnTemperature || second.structured {
		t.Fatalf("unexpected turn call: %+v", second)
	}
	if !strings.Contains(second.prompt, "Вопрос: Расскажите о вашем последнем проекте.\nОтвет: I built a REST API in my last internship") {
		t.Fatalf("history missing from prompt: %s", second.prompt)
	}

	sess, err := store.Get(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(sess.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(sess.History))
	}
	speakers := []session.Speaker{session.SpeakerAssistant, session.SpeakerUser, session.SpeakerAssistant}
	for i, m := range sess.History {
		if m.Speaker != speakers[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, speakers[i], m.Speaker)
		}
	}
	if sess.History[2].Content != "Как вы обрабатывали ошибки в API?" || sess.LastScore != 78 {
		t.Fatalf("unexpected session state: %+v", sess)
	}
	if sess.Level != "intern" {
		t.Fatalf("unexpected level %q", sess.Level)
	}
}

func TestTurnUnknownSession(t *testing.T) {
	store := session.NewMemoryStore(0)
	invoker := replying(turnReply)
	svc := NewService(invoker, store, Config{}, zap.NewNop())
	ctx := context.Background()

	started, err := svc.Start(ctx, "QA Intern", "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	callsBefore := len(invoker.calls)

	_, err = svc.Turn(ctx, "never-issued", "answer")
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}

	if len(invoker.calls) != callsBefore {
		t.Fatalf("unknown session must not reach the model")
	}
	if store.Len() != 1 {
		t.Fatalf("unknown session must not create entries, len=%d", store.Len())
	}
	sess, _ := store.Get(ctx, started.SessionID)
	if len(sess.History) != 1 {
		t.Fatalf("existing session mutated: %+v", sess.History)
	}
}

func TestStartFallsBackOnFailure(t *testing.T) {
	store := session.NewMemoryStore(0)
	svc := NewService(failing(ai.FailureTransport), store, Config{}, zap.NewNop())

	res, err := svc.Start(context.Background(), "Data Analyst Intern", "junior", "SQL")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.FirstQuestion != FallbackOpeningQuestion || res.SessionID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	sess, err := store.Get(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("session was not stored: %v", err)
	}
	if sess.Focus != "SQL" || sess.Level != "junior" || len(sess.History) != 1 {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestTurnFallsBackOnFailure(t *testing.T) {
	store := session.NewMemoryStore(0)
	invoker := replying("Первый вопрос?")
	svc := NewService(invoker, store, Config{}, zap.NewNop())
	ctx := context.Background()

	started, _ := svc.Start(ctx, "SRE Intern", "intern", "")

	invoker.respond = failing(ai.FailureTransport).respond
	res, err := svc.Turn(ctx, started.SessionID, "answer")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Score != 0 || res.Feedback != FallbackTurnFeedback || res.NextQuestion != FallbackNextQuestion {
		t.Fatalf("unexpected fallback: %+v", res)
	}

	sess, _ := store.Get(ctx, started.SessionID)
	if len(sess.History) != 3 || sess.History[2].Content != FallbackNextQuestion {
		t.Fatalf("fallback question must be recorded: %+v", sess.History)
	}
}

func TestTurnPromptUsesHistoryWindow(t *testing.T) {
	store := session.NewMemoryStore(0)
	invoker := replying(turnReply)
	svc := NewService(invoker, store, Config{HistoryWindow: 4}, zap.NewNop())
	ctx := context.Background()

	started, _ := svc.Start(ctx, "Go Intern", "intern", "concurrency")
	for i := 0; i < 5; i++ {
		if _, err := svc.Turn(ctx, started.SessionID, fmt.Sprintf("answer-%d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	prompt := invoker.last().prompt
	if strings.Contains(prompt, "answer-2") || !strings.Contains(prompt, "answer-3") || !strings.Contains(prompt, "answer-4") {
		t.Fatalf("prompt must contain only the last 4 entries:\n%s", prompt)
	}
	if strings.Count(prompt, "Вопрос: ")+strings.Count(prompt, "Ответ: ") != 4 {
		t.Fatalf("unexpected number of history lines:\n%s", prompt)
	}
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	store := session.NewMemoryStore(0)
	svc := NewService(replying(turnReply), store, Config{}, zap.NewNop())
	ctx := context.Background()

	started, _ := svc.Start(ctx, "Go Intern", "intern", "")

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Turn(ctx, started.SessionID, fmt.Sprintf("answer-%d", i)); err != nil {
				t.Errorf("turn %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	sess, _ := store.Get(ctx, started.SessionID)
	if len(sess.History) != 1+2*turns {
		t.Fatalf("expected %d entries, got %d", 1+2*turns, len(sess.History))
	}
	for i, m := range sess.History {
		expect := session.SpeakerAssistant
		if i%2 == 1 {
			expect = session.SpeakerUser
		}
		if m.Speaker != expect {
			t.Fatalf("entry %d out of order: %s", i, m.Speaker)
		}
	}
}

func TestEvaluate(t *testing.T) {
	invoker := replying(turnReply)
	svc := NewService(invoker, session.NewMemoryStore(0), Config{}, zap.NewNop())

	res := svc.Evaluate(context.Background(), "What is a goroutine?", "A lightweight thread.", "Go Intern")
	if res.Score != 78 || res.NextQuestion == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	prompt := invoker.last().prompt
	if !strings.Contains(prompt, "Вопрос: What is a goroutine?") || !strings.Contains(prompt, "Роль: Go Intern") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}

	svc = NewService(failing(ai.FailureMalformed), session.NewMemoryStore(0), Config{}, zap.NewNop())
	if res := svc.Evaluate(context.Background(), "q", "a", ""); res.Feedback != FallbackTurnFeedback || res.Score != 0 {
		t.Fatalf("unexpected fallback: %+v", res)
	}
}

type recordingCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) string
}

func (r *recordingCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, req.Prompt)
	r.mu.Unlock()
	return r.reply(req.Prompt), nil
}

func (r *recordingCompleter) Model() string { return "recorder" }

func (r *recordingCompleter) lastPrompt() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompts[len(r.prompts)-1]
}

func TestLongAnswersKeepTurnFormat(t *testing.T) {
	completer := &recordingCompleter{reply: func(prompt string) string {
		if strings.Contains(prompt, "ПЕРВЫЙ вопрос") {
			return "Расскажите о вашем опыте с Go."
		}
		return turnReply
	}}
	gateway := ai.NewGateway(completer, ai.Config{}, zap.NewNop())
	svc := NewService(gateway, session.NewMemoryStore(0), Config{}, zap.NewNop())
	ctx := context.Background()

	started, err := svc.Start(ctx, "Go Intern", "intern", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 6; i++ {
		answer := fmt.Sprintf("ответ-%d ", i) + strings.Repeat("я", 12_000)

		res, err := svc.Turn(ctx, started.SessionID, answer)
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if res.Score != 78 || res.NextQuestion != "Как вы обрабатывали ошибки в API?" {
			t.Fatalf("turn %d fell back: %+v", i, res)
		}

		prompt := completer.lastPrompt()
		if n := utf8.RuneCountInString(prompt); n > ai.DefaultPromptLimit {
			t.Fatalf("turn %d: prompt exceeds the gateway limit: %d", i, n)
		}
		for _, want := range []string{"Формат вывода СТРОГО", "NEXT_QUESTION: ...", "Роль: Go Intern"} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("turn %d: prompt lost %q", i, want)
			}
		}
		if !strings.Contains(prompt, fmt.Sprintf("Ответ: ответ-%d ", i)) {
			t.Fatalf("turn %d: newest answer missing from the prompt", i)
		}
	}
}

func TestEvaluateLongAnswerKeepsFormat(t *testing.T) {
	completer := &recordingCompleter{reply: func(string) string { return turnReply }}
	svc := NewService(ai.NewGateway(completer, ai.Config{}, zap.NewNop()), session.NewMemoryStore(0), Config{}, zap.NewNop())

	res := svc.Evaluate(context.Background(), strings.Repeat("в", 5_000), strings.Repeat("о", 20_000), "Go Intern")
	if res.Score != 78 {
		t.Fatalf("unexpected result: %+v", res)
	}

	prompt := completer.lastPrompt()
	if !strings.Contains(prompt, "Формат вывода СТРОГО") || !strings.Contains(prompt, "Ответ: ") {
		t.Fatalf("prompt lost its format block")
	}
	if n := utf8.RuneCountInString(prompt); n > ai.DefaultPromptLimit {
		t.Fatalf("prompt exceeds the gateway limit: %d", n)
	}
}

func TestRenderHistoryBudget(t *testing.T) {
	now := time.Now()
	sess := session.New("Go", "intern", "", now)
	for i := 0; i < 4; i++ {
		sess.Append(session.SpeakerAssistant, fmt.Sprintf("вопрос %d", i), now)
		sess.Append(session.SpeakerUser, strings.Repeat("x", 5_000), now)
	}

	full := renderHistory(sess.History, 1_000_000)
	lines := strings.Split(full, "\n")
	if len(lines) != 8 {
		t.Fatalf("expected every entry with a large budget, got %d", len(lines))
	}
	if got := utf8.RuneCountInString(lines[1]); got != utf8.RuneCountInString("Ответ: ")+historyEntryLimit {
		t.Fatalf("older answer not capped: %d runes", got)
	}
	if !strings.HasSuffix(lines[7], strings.Repeat("x", answerLimit)) || strings.Contains(lines[7], strings.Repeat("x", answerLimit+1)) {
		t.Fatalf("newest answer must keep its larger share")
	}

	tight := renderHistory(sess.History, 3_000)
	if utf8.RuneCountInString(tight) > 3_000 {
		t.Fatalf("history over budget: %d", utf8.RuneCountInString(tight))
	}
	if !strings.HasPrefix(strings.Split(tight, "\n")[len(strings.Split(tight, "\n"))-1], "Ответ: ") {
		t.Fatalf("newest entry must be kept")
	}
	if strings.Contains(tight, "вопрос 0") {
		t.Fatalf("oldest entries must be dropped first")
	}

	if got := renderHistory(sess.History, 10); !strings.HasPrefix(got, "Ответ: ") || strings.Contains(got, "\n") {
		t.Fatalf("the newest entry is kept even over budget, got %q", utils.TruncateForLog(got, 40))
	}
}
