package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/models"
)

// Hook buffers formatted log entries per session key so each request's
// lines can be flushed to storage without interleaving lines from
// concurrent requests. Entries without a session field pass through
// untouched and are never buffered.
type Hook struct {
	mu      sync.Mutex
	buffers map[string][]string
}

func NewHook() *Hook {
	return &Hook{buffers: make(map[string][]string)}
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	key, ok := entry.Data["session"].(string)
	if !ok || key == "" {
		return nil
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("] ")
	b.WriteString(entry.Message)

	fields := make([]string, 0, len(entry.Data))
	for k, v := range entry.Data {
		if k == "session" {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(fields)
	if len(fields) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(fields, " "))
	}

	h.mu.Lock()
	h.buffers[key] = append(h.buffers[key], b.String())
	h.mu.Unlock()
	return nil
}

// Drain returns the buffered lines for a session and frees the buffer.
func (h *Hook) Drain(key string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines := h.buffers[key]
	delete(h.buffers, key)
	return lines
}

// Uploader writes one log object to storage.
type Uploader interface {
	Put(ctx context.Context, path string, content []byte, overwrite bool) error
}

// Flusher ships a request's buffered log lines to blob storage once the
// response is on its way. Failed requests land under a separate prefix
// so they can be triaged without scanning the full log tree.
type Flusher struct {
	hook     *Hook
	store    Uploader
	basePath string
	logger   *logrus.Logger
}

func NewFlusher(hook *Hook, store Uploader, basePath string, logger *logrus.Logger) *Flusher {
	return &Flusher{hook: hook, store: store, basePath: basePath, logger: logger}
}

func (f *Flusher) Flush(ctx context.Context, q *models.Query, failed bool) {
	lines := f.hook.Drain(q.SessionKey())
	if len(lines) == 0 {
		return
	}

	dir := "log"
	if failed {
		dir = "error_log"
	}
	path := fmt.Sprintf("%s/%s/%s/%s/%s/%s_%s.log",
		f.basePath, dir, time.Now().Format("20060102"),
		q.ISOCode, q.LanguageName, q.ChatID, q.ChatSessionID)

	if err := f.store.Put(ctx, path, []byte(strings.Join(lines, "\n")), true); err != nil {
		f.logger.WithError(err).WithField("path", path).Warn("Log upload failed")
	}
}
