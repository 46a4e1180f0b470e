package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/chat"
	"github.com/careline/chatbot-backend/internal/health"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/careline/chatbot-backend/pkg/utils"
)

// ChatHandler exposes the chat pipeline over HTTP.
type ChatHandler struct {
	driver    *chat.Driver
	authToken string
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewChatHandler(driver *chat.Driver, authToken string, timeout time.Duration, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		driver:    driver,
		authToken: authToken,
		timeout:   timeout,
		logger:    logger,
	}
}

// HandleChat answers one chat turn. The contract with callers is that a
// well-formed request never gets an HTTP error: degraded paths return
// the same payload shape with status 200.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if h.authToken != "" && c.GetHeader("Authorization") != h.authToken {
		h.logger.WithFields(logrus.Fields{
			"chat_id":    req.ChatID,
			"ip_address": c.ClientIP(),
		}).Error("Authorization failed")
		c.JSON(http.StatusOK, chat.EmptyResponse())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":   req.ChatID,
		"session":   req.ChatSessionID,
		"rag_order": req.RAGOrder,
		"locale":    req.LocaleCode,
		"platform":  req.Platform,
	}).Info("Processing chat request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	resp := h.driver.Handle(ctx, &req)

	h.logger.WithFields(logrus.Fields{
		"chat_id":       req.ChatID,
		"session":       req.ChatSessionID,
		"intent":        resp.AdditionalInfo.Intent,
		"response_time": time.Since(start).Milliseconds(),
	}).Info("Chat request completed")

	c.JSON(http.StatusOK, resp)
}

// HealthHandler exposes liveness and dependency health.
type HealthHandler struct {
	checker *health.Checker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.Checker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

// HandleHealth serves the cached dependency statuses, falling back to a
// live check when the cache is cold.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	overall, err := h.checker.CheckCached(ctx)
	if err != nil {
		live := h.checker.CheckAll()
		overall = &live
	}

	status := http.StatusOK
	if overall.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, overall)
}

// HandleLiveness is the bare process-up probe.
func (h *HealthHandler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Service:   "chatbot-backend",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
