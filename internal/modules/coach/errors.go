package coach

import (
	"errors"
	"fmt"
)

// GenerationError is the single failure surfaced by plan generation.
// Transport, quota and parse failures all fold into it.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string { return "plan generation failed" }
func (e *GenerationError) Unwrap() error { return e.Cause }

// ParseError means the provider answered with something that is not a plan.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse plan: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

// SessionError means the consultant was used before a plan opened a session.
type SessionError struct {
	Reason string
}

func (e *SessionError) Error() string { return "chat session unavailable: " + e.Reason }

var ErrNoSession error = &SessionError{Reason: "generate a plan first"}

// TransportError wraps a failed consultant call.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("chat send failed: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

var (
	ErrChatBusy          = errors.New("a chat message is already being answered")
	ErrGenerationBusy    = errors.New("a plan is being generated")
	ErrResetNotConfirmed = errors.New("reset confirmation missing or expired")
	ErrNoPlan            = errors.New("no active plan")
)
