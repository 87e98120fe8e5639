// Package http provides HTTP handlers for audit trail queries.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	"github.com/openballot/openballot/internal/audit/http/dto"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs with pagination and optional filtering.
// GET /v1/audit-logs?offset=0&limit=50&actor_id=...&action=...&success=true&created_at_from=...&created_at_to=...
// Returns 200 OK with entries ordered newest first. Timestamp filters accept
// RFC3339 and are inclusive on both boundaries.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, "", h.logger)
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, "", h.logger)
		return
	}

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}

func parseListFilter(c *gin.Context) (auditDomain.ListFilter, error) {
	var filter auditDomain.ListFilter

	if actorStr := c.Query("actor_id"); actorStr != "" {
		actorID, err := uuid.Parse(actorStr)
		if err != nil {
			return filter, fmt.Errorf("invalid actor_id: must be a UUID")
		}
		filter.ActorID = &actorID
	}

	if actionStr := c.Query("action"); actionStr != "" {
		action := auditDomain.Action(actionStr)
		filter.Action = &action
	}

	if successStr := c.Query("success"); successStr != "" {
		switch successStr {
		case "true":
			success := true
			filter.Success = &success
		case "false":
			success := false
			filter.Success = &success
		default:
			return filter, fmt.Errorf("invalid success: must be true or false")
		}
	}

	if fromStr := c.Query("created_at_from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_from format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)")
		}
		utcTime := parsed.UTC()
		filter.CreatedAtFrom = &utcTime
	}

	if toStr := c.Query("created_at_to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_to format: must be RFC3339 (e.g., 2026-02-14T23:59:59Z)")
		}
		utcTime := parsed.UTC()
		filter.CreatedAtTo = &utcTime
	}

	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil && filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		return filter, fmt.Errorf("created_at_from must be before or equal to created_at_to")
	}

	return filter, nil
}
