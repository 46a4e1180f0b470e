package chat

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/docdb"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/careline/chatbot-backend/pkg/utils"
)

// Historian loads the prior turns of a conversation.
type Historian interface {
	History(ctx context.Context, chatID, sessionID string) ([]docdb.HistoryTurn, error)
}

// historyWindow is how many prior turns the prompts see. The newest
// stored turn is the question currently being answered and is dropped.
const historyWindow = 10

// LoadHistory renders the conversation block substituted into both LLM
// prompts. A missing or unreadable history degrades to an empty block,
// the answer is still produced without memory.
func LoadHistory(ctx context.Context, source Historian, q *models.Query, logger *logrus.Logger) string {
	turns, err := source.History(ctx, q.ChatID, q.ChatSessionID)
	if err != nil {
		logger.WithError(err).WithField("session", q.SessionKey()).Warn("Chat history unavailable")
		return ""
	}
	if len(turns) == 0 {
		return ""
	}

	start := 0
	if len(turns) > historyWindow+1 {
		start = len(turns) - historyWindow - 1
	}
	turns = turns[start : len(turns)-1]

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		role := t.Role
		switch role {
		case "assistant":
			role = "chat bot"
		case "user":
			role = "customer"
		}
		// Answers carry anchor markup the model should not see.
		content := utils.RemoveTagBetween(t.Content, "<a href=", "</a>")
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n\n")
}
