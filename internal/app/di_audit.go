package app

import (
	"fmt"

	auditHTTP "github.com/openballot/openballot/internal/audit/http"
	auditRepository "github.com/openballot/openballot/internal/audit/repository"
	auditService "github.com/openballot/openballot/internal/audit/service"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
)

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuditLogHandler returns the audit log HTTP handler.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	useCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for handler: %w", err)
	}
	return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log use case: %w", err)
	}

	signingKey, err := c.auditSigningKey()
	if err != nil {
		return nil, err
	}

	useCase := auditUseCase.NewAuditLogUseCase(
		auditRepository.NewPostgreSQLAuditLogRepository(db),
		auditService.NewSigner(),
		signingKey,
		c.Clock(),
		c.Logger(),
		c.config.DBRetryAttempts,
		c.config.DBRetryBackoff,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = auditUseCase.NewAuditLogUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
