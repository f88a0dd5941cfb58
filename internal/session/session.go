// Package session keeps interview conversation state behind a pluggable store.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a history entry.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
)

type Message struct {
	Speaker Speaker `json:"speaker"`
	Content string  `json:"content"`
}

// Session is one interview conversation. Focus is empty when not set.
type Session struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	Focus     string    `json:"focus,omitempty"`
	History   []Message `json:"history"`
	LastScore int       `json:"last_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session with a random UUID v4 identifier and empty history.
func New(role, level, focus string, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Role:      role,
		Level:     level,
		Focus:     focus,
		History:   []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Append(speaker Speaker, content string, now time.Time) {
	s.History = append(s.History, Message{Speaker: speaker, Content: content})
	s.UpdatedAt = now
}

// Window returns the last n history entries, or all of them when n <= 0.
func (s *Session) Window(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Clone returns a copy that shares no history storage with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Message(nil), s.History...)
	if c.History == nil {
		c.History = []Message{}
	}
	return &c
}
