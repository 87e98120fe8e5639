package guard

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	apperrors "github.com/openballot/openballot/internal/errors"
	"github.com/openballot/openballot/internal/httputil"
)

// VoterIDHeader identifies the acting voter for throttling and auditing.
const VoterIDHeader = "X-Voter-ID"

// RateLimitMiddleware throttles requests per client IP and voter. When
// the limiter backend fails the middleware fails open if configured,
// otherwise it denies the request.
func RateLimitMiddleware(limiter Limiter, audit AuditRecorder, failOpen bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + "|" + voterKey(c)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			if failOpen {
				logger.Warn("rate limiter unavailable, failing open",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				c.Next()
				return
			}
			logger.Error("rate limiter unavailable, denying request",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			deny(c, audit, logger)
			return
		}

		if !allowed {
			deny(c, audit, logger)
			return
		}

		c.Next()
	}
}

func deny(c *gin.Context, audit AuditRecorder, logger *slog.Logger) {
	actorID, _ := uuid.Parse(c.GetHeader(VoterIDHeader))

	audit.Record(c.Request.Context(), auditUseCase.RecordInput{
		ActorID:      actorID,
		Action:       auditDomain.ActionRateLimitExceeded,
		ResourceType: "endpoint",
		ResourceID:   c.FullPath(),
		Success:      false,
		Detail: map[string]any{
			"method": c.Request.Method,
		},
		RequestMeta: auditDomain.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	})

	httputil.HandleErrorGin(c, apperrors.ErrTooManyRequests, "RATE_LIMITED", logger)
	c.Abort()
}

func voterKey(c *gin.Context) string {
	if voterID := c.GetHeader(VoterIDHeader); voterID != "" {
		return voterID
	}
	return "anonymous"
}
