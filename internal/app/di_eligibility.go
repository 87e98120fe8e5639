package app

import (
	"fmt"

	eligibilityRepository "github.com/openballot/openballot/internal/eligibility/repository"
	eligibilityUseCase "github.com/openballot/openballot/internal/eligibility/usecase"
)

// EligibilityUseCase returns the eligibility use case.
func (c *Container) EligibilityUseCase() (eligibilityUseCase.EligibilityUseCase, error) {
	var err error
	c.eligibilityUseCaseInit.Do(func() {
		c.eligibilityUseCase, err = c.initEligibilityUseCase()
		if err != nil {
			c.initErrors["eligibilityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eligibilityUseCase"]; exists {
		return nil, storedErr
	}
	return c.eligibilityUseCase, nil
}

// initEligibilityUseCase creates the eligibility use case with all its dependencies.
func (c *Container) initEligibilityUseCase() (eligibilityUseCase.EligibilityUseCase, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for eligibility use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for eligibility use case: %w", err)
	}

	return eligibilityUseCase.NewEligibilityUseCase(
		eligibilityRepository.NewPostgreSQLEligibilityGrantRepository(db),
		auditLogUseCase,
		c.Clock(),
	), nil
}
