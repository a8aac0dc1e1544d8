// Package chat turns project context, conversation history and datasets into
// completion messages, and reads structured answers back out of replies.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/jabiru-analytics/jabiru/internal/ai"
)

const (
	genericSystemPrompt = "You are an AI assistant helping with data analysis. Provide clear and helpful responses."
	contextSystemPrompt = "You are an AI assistant helping with data analysis. \n" +
		"Here is the context about the user's project:\n\n%s\n\n" +
		"Use this context to provide more relevant and specific insights when answering questions."
)

// HistoryMessage is one earlier turn supplied by the client.
type HistoryMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// BuildMessages returns the system message, then the history in order, then
// the new user message. History entries without a role are sent as user turns.
func BuildMessages(userMessage, projectContext string, history []HistoryMessage) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)+2)

	system := genericSystemPrompt
	if strings.TrimSpace(projectContext) != "" {
		system = fmt.Sprintf(contextSystemPrompt, projectContext)
	}
	msgs = append(msgs, ai.Message{Role: "system", Content: system})

	for _, h := range history {
		role := h.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, ai.Message{Role: role, Content: h.Content})
	}
	return append(msgs, ai.Message{Role: "user", Content: userMessage})
}
