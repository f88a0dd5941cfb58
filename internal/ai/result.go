package ai

import (
	"fmt"

	"github.com/spigell/careerboost/internal/ai/recovery"
)

// FailureKind names why a completion produced no usable output.
type FailureKind string

const (
	// FailureTransport covers network, auth, rate limit and timeout errors.
	FailureTransport FailureKind = "llm_call_failed"
	// FailureMalformed means structured output could not be recovered as JSON.
	FailureMalformed FailureKind = "invalid_json_from_llm"
)

// Failure is the failure variant of Result.
type Failure struct {
	Kind    FailureKind `json:"error"`
	Message string      `json:"message,omitempty"`
	Raw     string      `json:"raw,omitempty"`
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is either a success carrying model text (and, in structured mode, the
// recovered object) or a Failure. Check OK before reading the payload.
type Result struct {
	text    string
	object  recovery.Object
	failure *Failure
}

func Success(text string, obj recovery.Object) Result {
	return Result{text: text, object: obj}
}

func Failed(f *Failure) Result {
	if f == nil {
		f = &Failure{Kind: FailureTransport}
	}
	return Result{failure: f}
}

func (r Result) OK() bool { return r.failure == nil }

func (r Result) Text() string { return r.text }

// Object is nil unless the call was structured and succeeded.
func (r Result) Object() recovery.Object { return r.object }

func (r Result) Failure() *Failure { return r.failure }
