package app

import (
	"fmt"

	"github.com/openballot/openballot/internal/guard"
	votingHTTP "github.com/openballot/openballot/internal/voting/http"
	votingRepository "github.com/openballot/openballot/internal/voting/repository"
	votingUseCase "github.com/openballot/openballot/internal/voting/usecase"
)

// VoteUseCase returns the vote use case.
func (c *Container) VoteUseCase() (votingUseCase.VoteUseCase, error) {
	var err error
	c.voteUseCaseInit.Do(func() {
		c.voteUseCase, err = c.initVoteUseCase()
		if err != nil {
			c.initErrors["voteUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["voteUseCase"]; exists {
		return nil, storedErr
	}
	return c.voteUseCase, nil
}

// VoteHandler returns the vote HTTP handler.
func (c *Container) VoteHandler() (*votingHTTP.VoteHandler, error) {
	useCase, err := c.VoteUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vote use case for handler: %w", err)
	}
	return votingHTTP.NewVoteHandler(useCase, c.Logger()), nil
}

// Limiter returns the request-rate limiter for the configured backend.
func (c *Container) Limiter() (guard.Limiter, error) {
	var err error
	c.limiterInit.Do(func() {
		c.limiter, err = c.initLimiter()
		if err != nil {
			c.initErrors["limiter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["limiter"]; exists {
		return nil, storedErr
	}
	return c.limiter, nil
}

// CounterStore returns the sliding-window counter store for the configured backend.
func (c *Container) CounterStore() (guard.CounterStore, error) {
	var err error
	c.counterStoreInit.Do(func() {
		c.counterStore, err = c.initCounterStore()
		if err != nil {
			c.initErrors["counterStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["counterStore"]; exists {
		return nil, storedErr
	}
	return c.counterStore, nil
}

// SecurityTracker returns the anomaly tracker.
func (c *Container) SecurityTracker() (*guard.SecurityTracker, error) {
	var err error
	c.securityTrackerInit.Do(func() {
		c.securityTracker, err = c.initSecurityTracker()
		if err != nil {
			c.initErrors["securityTracker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityTracker"]; exists {
		return nil, storedErr
	}
	return c.securityTracker, nil
}

// initVoteUseCase creates the vote use case with all its dependencies.
func (c *Container) initVoteUseCase() (votingUseCase.VoteUseCase, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for vote use case: %w", err)
	}

	secretCodeUseCase, err := c.SecretCodeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret code use case for vote use case: %w", err)
	}

	eligibilityUseCase, err := c.EligibilityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get eligibility use case for vote use case: %w", err)
	}

	electionUseCase, err := c.ElectionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get election use case for vote use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for vote use case: %w", err)
	}

	securityTracker, err := c.SecurityTracker()
	if err != nil {
		return nil, fmt.Errorf("failed to get security tracker for vote use case: %w", err)
	}

	useCase := votingUseCase.NewVoteUseCase(
		votingRepository.NewPostgreSQLVoteRepository(db),
		secretCodeUseCase,
		eligibilityUseCase,
		electionUseCase,
		auditLogUseCase,
		securityTracker,
		c.Clock(),
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for vote use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = votingUseCase.NewVoteUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initLimiter creates the rate limiter for the configured backend.
func (c *Container) initLimiter() (guard.Limiter, error) {
	if c.config.RateLimitBackend == "redis" {
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for limiter: %w", err)
		}
		return guard.NewRedisLimiter(
			client,
			c.config.RateLimitMaxRequests,
			c.config.RateLimitWindow,
			c.Clock(),
		), nil
	}

	return guard.NewMemoryLimiter(
		c.config.RateLimitMaxRequests,
		c.config.RateLimitWindow,
		c.Clock(),
	), nil
}

// initCounterStore creates the counter store for the configured backend.
func (c *Container) initCounterStore() (guard.CounterStore, error) {
	if c.config.RateLimitBackend == "redis" {
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for counter store: %w", err)
		}
		return guard.NewRedisCounterStore(client, c.Clock()), nil
	}

	return guard.NewMemoryCounterStore(c.Clock()), nil
}

// initSecurityTracker creates the anomaly tracker with all its dependencies.
func (c *Container) initSecurityTracker() (*guard.SecurityTracker, error) {
	counterStore, err := c.CounterStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get counter store for security tracker: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for security tracker: %w", err)
	}

	return guard.NewSecurityTracker(
		counterStore,
		auditLogUseCase,
		c.Clock(),
		c.Logger(),
		c.config.FailedAuthThreshold,
		c.config.FailedAuthWindow,
		c.config.BurstThreshold,
	), nil
}
