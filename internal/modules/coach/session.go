package coach

import "time"

// Session is the provider-side conversation opened by a successful plan
// generation. The controller owns it and hands it to the consultant on every
// send; a new plan replaces it.
type Session struct {
	ConversationID string
	Instructions   string
	OpenedAt       time.Time
}

func (s *Session) usable() bool {
	return s != nil && s.ConversationID != ""
}
