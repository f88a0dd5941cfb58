package recovery

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestRecoverMatchesDirectParse(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{}`,
		`{"score": 87, "strengths": ["Go", "SQL"], "summary": "ok"}`,
		`{"nested": {"a": [1, 2, {"b": null}]}, "flag": true}`,
		"  \n{\"padded\": \"yes\"}\n ",
		`{"text": "braces } inside { strings"}`,
	}

	for _, input := range inputs {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			got, err := Recover(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var want map[string]any
			if err := json.Unmarshal([]byte(input), &want); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}

			if !reflect.DeepEqual(got.Interface(), want) {
				t.Fatalf("expected %#v, got %#v", want, got.Interface())
			}
		})
	}
}

func TestRecoverIgnoresSurroundingText(t *testing.T) {
	t.Parallel()

	body := `{"letter": "Dear team", "short_email": "Hi", "n": 3}`
	cases := map[string]string{
		"prose":           "Sure! Here is the JSON you asked for:\n" + body + "\nHope this helps.",
		"fenced":          "```json\n" + body + "\n```",
		"fenced no lang":  "```\n" + body + "\n```",
		"fence and prose": "Result below\n```json\n" + body + "\n```\nThanks",
		"suffix only":     body + " -- end",
	}

	for name, input := range cases {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Recover(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			letter, ok := got.Get("letter").Str()
			if !ok || letter != "Dear team" {
				t.Fatalf("unexpected letter: %q", letter)
			}
			n, ok := got.Get("n").Num()
			if !ok || n != 3 {
				t.Fatalf("unexpected n: %v", n)
			}
		})
	}
}

func TestRecoverPassesObjectsThrough(t *testing.T) {
	t.Parallel()

	obj := Object{"score": Number(10)}
	got, err := Recover(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, obj) {
		t.Fatalf("expected object to pass through unchanged")
	}

	m := map[string]any{"items": []any{"a", 1.5}}
	got, err = Recover(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Interface(), m) {
		t.Fatalf("expected %#v, got %#v", m, got.Interface())
	}
}

func TestRecoverFailures(t *testing.T) {
	t.Parallel()

	inputs := []any{
		"",
		"no json here",
		"{not json at all}",
		"} backwards {",
		`["array", "only"]`,
		`42`,
		nil,
		3.14,
	}

	for _, input := range inputs {
		_, err := Recover(input)
		if err == nil {
			t.Fatalf("expected error for %#v", input)
		}
		if !errors.Is(err, ErrMalformedModelOutput) {
			t.Fatalf("expected ErrMalformedModelOutput, got %v", err)
		}
	}

	_, err := Recover("model said: nope")
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %T", err)
	}
	if malformed.Raw != "model said: nope" {
		t.Fatalf("expected raw candidate to be kept, got %q", malformed.Raw)
	}
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	v := FromAny(map[string]any{
		"s": "text",
		"n": 12.0,
		"b": true,
		"l": []any{"x", 2.5},
		"o": map[string]any{"k": nil},
	})

	obj, ok := v.Obj()
	if !ok {
		t.Fatalf("expected object, got %s", v.Kind())
	}

	if s, ok := obj.Get("s").Str(); !ok || s != "text" {
		t.Fatalf("unexpected string: %q", s)
	}
	if _, ok := obj.Get("n").Str(); ok {
		t.Fatalf("number must not report as string")
	}
	if b, ok := obj.Get("b").Boolean(); !ok || !b {
		t.Fatalf("unexpected bool")
	}
	items, ok := obj.Get("l").Items()
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected list: %v", items)
	}
	if s, ok := items[1].Scalar(); !ok || s != "2.5" {
		t.Fatalf("unexpected scalar rendering: %q", s)
	}
	if s, ok := obj.Get("n").Scalar(); !ok || s != "12" {
		t.Fatalf("unexpected integer rendering: %q", s)
	}
	inner, ok := obj.Get("o").Obj()
	if !ok || !inner.Get("k").IsNull() {
		t.Fatalf("expected nested null")
	}
	if !obj.Get("missing").IsNull() {
		t.Fatalf("missing key must be null")
	}
	if got := FromAny(struct{}{}); !got.IsNull() {
		t.Fatalf("unknown types must become null")
	}
}
