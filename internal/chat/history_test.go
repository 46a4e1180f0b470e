package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/careline/chatbot-backend/internal/docdb"
	"github.com/careline/chatbot-backend/internal/models"
)

type fakeHistorian struct {
	turns []docdb.HistoryTurn
	err   error
}

func (f *fakeHistorian) History(ctx context.Context, chatID, sessionID string) ([]docdb.HistoryTurn, error) {
	return f.turns, f.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func historyQuery() *models.Query {
	return &models.Query{ChatID: "chat-1", ChatSessionID: "sess-1", RAGOrder: 1}
}

func TestLoadHistory_ErrorDegradesToEmpty(t *testing.T) {
	source := &fakeHistorian{err: errors.New("store unavailable")}

	got := LoadHistory(context.Background(), source, historyQuery(), testLogger())

	assert.Equal(t, "", got)
}

func TestLoadHistory_NoTurns(t *testing.T) {
	source := &fakeHistorian{}

	got := LoadHistory(context.Background(), source, historyQuery(), testLogger())

	assert.Equal(t, "", got)
}

func TestLoadHistory_DropsCurrentTurn(t *testing.T) {
	source := &fakeHistorian{turns: []docdb.HistoryTurn{
		{Role: "user", Content: "My fridge is warm"},
		{Role: "assistant", Content: "Check the thermostat"},
		{Role: "user", Content: "Still warm"},
	}}

	got := LoadHistory(context.Background(), source, historyQuery(), testLogger())

	assert.Equal(t, "customer: My fridge is warm\n\nchat bot: Check the thermostat", got)
}

func TestLoadHistory_WindowsToLastTenPriorTurns(t *testing.T) {
	var turns []docdb.HistoryTurn
	for i := 0; i < 13; i++ {
		turns = append(turns, docdb.HistoryTurn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	source := &fakeHistorian{turns: turns}

	got := LoadHistory(context.Background(), source, historyQuery(), testLogger())

	// 13 stored turns: the current one is dropped and the window keeps
	// the 10 before it, so turns 2 through 11 survive.
	assert.Contains(t, got, "customer: turn 2")
	assert.Contains(t, got, "customer: turn 11")
	assert.NotContains(t, got, "turn 1\n")
	assert.NotContains(t, got, "turn 12")
}

func TestLoadHistory_StripsAnchorTags(t *testing.T) {
	source := &fakeHistorian{turns: []docdb.HistoryTurn{
		{Role: "assistant", Content: `See <a href="https://example.com/manual">the manual</a> for details`},
		{Role: "user", Content: "thanks"},
	}}

	got := LoadHistory(context.Background(), source, historyQuery(), testLogger())

	assert.Equal(t, "chat bot: See  for details", got)
}
