// Package dto provides request and response mapping for audit log endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses.
// The signature is not exposed; integrity checks run server side.
type AuditLogResponse struct {
	ID           uuid.UUID      `json:"id"`
	ActorID      uuid.UUID      `json:"actor_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Success      bool           `json:"success"`
	Detail       map[string]any `json:"detail,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Location     string         `json:"location,omitempty"`
	RiskScore    int            `json:"risk_score"`
	RiskLevel    string         `json:"risk_level"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:           auditLog.ID,
		ActorID:      auditLog.ActorID,
		Action:       string(auditLog.Action),
		ResourceType: auditLog.ResourceType,
		ResourceID:   auditLog.ResourceID,
		Success:      auditLog.Success,
		Detail:       auditLog.Detail,
		IPAddress:    auditLog.RequestMeta.IPAddress,
		UserAgent:    auditLog.RequestMeta.UserAgent,
		Location:     auditLog.RequestMeta.Location,
		RiskScore:    auditLog.RiskScore,
		RiskLevel:    string(auditLog.RiskLevel),
		CreatedAt:    auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		data = append(data, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{Data: data}
}
