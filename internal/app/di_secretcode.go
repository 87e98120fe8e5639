package app

import (
	"fmt"

	"github.com/openballot/openballot/internal/database"
	secretcodeRepository "github.com/openballot/openballot/internal/secretcode/repository"
	secretcodeService "github.com/openballot/openballot/internal/secretcode/service"
	secretcodeUseCase "github.com/openballot/openballot/internal/secretcode/usecase"
)

// SecretCodeUseCase returns the secret code use case.
func (c *Container) SecretCodeUseCase() (secretcodeUseCase.SecretCodeUseCase, error) {
	var err error
	c.secretCodeUseCaseInit.Do(func() {
		c.secretCodeUseCase, err = c.initSecretCodeUseCase()
		if err != nil {
			c.initErrors["secretCodeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretCodeUseCase"]; exists {
		return nil, storedErr
	}
	return c.secretCodeUseCase, nil
}

// initSecretCodeUseCase creates the secret code use case with all its dependencies.
func (c *Container) initSecretCodeUseCase() (secretcodeUseCase.SecretCodeUseCase, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret code use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for secret code use case: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for secret code use case: %w", err)
	}

	return secretcodeUseCase.NewSecretCodeUseCase(
		secretcodeRepository.NewPostgreSQLSecretCodeRepository(db),
		secretcodeService.NewCodeService(),
		auditLogUseCase,
		dispatcher,
		database.NewTxManager(db),
		c.Clock(),
		c.Logger(),
		c.config.LockoutMaxAttempts,
		c.config.LockoutDuration,
	), nil
}
