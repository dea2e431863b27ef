package session

// Lifecycle categories. These bodies are sent without schema validation.
const (
	CategoryUser       = "user"
	CategorySessionEnd = "session_end"
)

// StartEvent returns the event fields of the session-begin marker. The
// caller enriches it with protocol metadata and the session context.
func StartEvent() map[string]any {
	return map[string]any{}
}

// EndEvent returns the event fields of the session_end marker.
// length is the session length in seconds.
func EndEvent(length int64) map[string]any {
	return map[string]any{
		"length": length,
	}
}
