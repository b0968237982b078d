package coach

import (
	"context"
	"strings"

	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
	"github.com/yungbote/fitcoach-backend/internal/platform/openai"
)

// Consultant sends one message into an existing session. History lives with
// the provider; only the new text and the session instructions go out.
type Consultant struct {
	ai  openai.Client
	log *logger.Logger
}

func NewConsultant(ai openai.Client, log *logger.Logger) *Consultant {
	return &Consultant{ai: ai, log: log.With("service", "Consultant")}
}

func (c *Consultant) Send(ctx context.Context, session *Session, text string) (string, error) {
	if !session.usable() {
		return "", ErrNoSession
	}
	reply, err := c.ai.GenerateTextInConversation(ctx, session.ConversationID, session.Instructions, text)
	if err != nil {
		c.log.Warn("consultant call failed", "conversation_id", session.ConversationID, "error", err)
		return "", &TransportError{Cause: err}
	}
	return strings.TrimSpace(reply), nil
}
