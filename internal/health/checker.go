package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/careline/chatbot-backend/internal/database"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Checker manages health checks for all backing services
type Checker struct {
	dbManager     *database.Manager
	cache         *database.Cache
	healthRepo    models.SystemHealthRepository
	logger        *logrus.Logger
	searchURL     string
	llmURL        string
	translatorURL string
}

func NewChecker(dbManager *database.Manager, cache *database.Cache, healthRepo models.SystemHealthRepository, logger *logrus.Logger, searchURL, llmURL, translatorURL string) *Checker {
	return &Checker{
		dbManager:     dbManager,
		cache:         cache,
		healthRepo:    healthRepo,
		logger:        logger,
		searchURL:     searchURL,
		llmURL:        llmURL,
		translatorURL: translatorURL,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// CheckPostgreSQL checks PostgreSQL database health
func (h *Checker) CheckPostgreSQL() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingDatabase()
	responseTime := int(time.Since(start).Milliseconds())

	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
		h.logger.WithError(err).Error("PostgreSQL health check failed")
	}

	h.healthRepo.UpdateServiceHealth("postgresql", status, responseTime, errorMsg)

	return ServiceHealth{
		Name:         "postgresql",
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckRedis checks Redis cache health
func (h *Checker) CheckRedis() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingRedis()
	responseTime := int(time.Since(start).Milliseconds())

	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
		h.logger.WithError(err).Error("Redis health check failed")
	}

	h.healthRepo.UpdateServiceHealth("redis", status, responseTime, errorMsg)

	return ServiceHealth{
		Name:         "redis",
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckGateway probes an HTTP gateway endpoint. A 401 or 403 still means
// the service is reachable, so only 5xx and transport errors count against it.
func (h *Checker) CheckGateway(name, url string) ServiceHealth {
	start := time.Now()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)

	responseTime := int(time.Since(start).Milliseconds())
	status := "healthy"
	errorMsg := ""

	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
	} else {
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			status = "unhealthy"
			errorMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
	}

	if status != "healthy" {
		h.logger.WithError(err).WithField("service", name).Error("Gateway health check failed")
	}

	h.healthRepo.UpdateServiceHealth(name, status, responseTime, errorMsg)

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all services
func (h *Checker) CheckAll() OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(),
		h.CheckRedis(),
		h.CheckGateway("search", h.searchURL),
		h.CheckGateway("llm", h.llmURL),
		h.CheckGateway("translator", h.translatorURL),
	}

	overallStatus := "healthy"
	for _, service := range services {
		if service.Status == "unhealthy" {
			overallStatus = "unhealthy"
			break
		}
		if service.Status == "degraded" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	return OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   h.getUptime(),
	}
}

// CheckCached returns the cached health snapshot if one is available
func (h *Checker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	var cached []models.SystemHealth
	if err := h.cache.GetCachedSystemHealth(ctx, &cached); err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, len(cached))
	overallStatus := "healthy"

	for i, entry := range cached {
		services[i] = ServiceHealth{
			Name:         entry.ServiceName,
			Status:       entry.Status,
			ResponseTime: entry.ResponseTimeMs,
			Error:        entry.ErrorMessage,
			LastChecked:  entry.CheckedAt.Format(time.RFC3339),
		}

		if entry.Status == "unhealthy" {
			overallStatus = "unhealthy"
		} else if entry.Status == "degraded" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	return &OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   h.getUptime(),
	}, nil
}

var startTime = time.Now()

func (h *Checker) getUptime() string {
	uptime := time.Since(startTime)
	return uptime.String()
}

// PeriodicHealthCheck runs health checks periodically
func (h *Checker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll()

			cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			entries := make([]models.SystemHealth, len(health.Services))
			for i, service := range health.Services {
				checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
				entries[i] = models.SystemHealth{
					ServiceName:    service.Name,
					Status:         service.Status,
					ResponseTimeMs: service.ResponseTime,
					ErrorMessage:   service.Error,
					CheckedAt:      checkedAt,
				}
			}

			if err := h.cache.CacheSystemHealth(cacheCtx, entries, 2*interval); err != nil {
				h.logger.WithError(err).Error("Failed to cache health status")
			}
			cancel()

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
