package models

// GenerationEventType tags the events produced while streaming an
// answer.
type GenerationEventType string

const (
	EventToken GenerationEventType = "token"
	EventDone  GenerationEventType = "done"
	EventError GenerationEventType = "error"
)

// GenerationEvent is one element of the finite, ordered event sequence
// a query produces. Exactly one terminal event (done or error) ends
// the sequence; token events only ever precede it.
type GenerationEvent struct {
	Type    GenerationEventType `json:"type"`
	Token   string              `json:"token,omitempty"`
	Answer  string              `json:"answer,omitempty"`
	Sources []SourceRef         `json:"sources,omitempty"`
	ErrKind ErrorKind           `json:"error_kind,omitempty"`
	Message string              `json:"message,omitempty"`
}

// TokenEvent builds a token event.
func TokenEvent(token string) GenerationEvent {
	return GenerationEvent{Type: EventToken, Token: token}
}

// DoneEvent builds the terminal success event.
func DoneEvent(answer string, sources []SourceRef) GenerationEvent {
	return GenerationEvent{Type: EventDone, Answer: answer, Sources: sources}
}

// ErrorEvent builds the terminal failure event.
func ErrorEvent(kind ErrorKind, message string) GenerationEvent {
	return GenerationEvent{Type: EventError, ErrKind: kind, Message: message}
}
