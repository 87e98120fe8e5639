package app

import (
	"fmt"

	electionRepository "github.com/openballot/openballot/internal/election/repository"
	electionUseCase "github.com/openballot/openballot/internal/election/usecase"
	votingRepository "github.com/openballot/openballot/internal/voting/repository"
)

// ElectionUseCase returns the election lifecycle use case.
func (c *Container) ElectionUseCase() (electionUseCase.ElectionUseCase, error) {
	var err error
	c.electionUseCaseInit.Do(func() {
		c.electionUseCase, err = c.initElectionUseCase()
		if err != nil {
			c.initErrors["electionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["electionUseCase"]; exists {
		return nil, storedErr
	}
	return c.electionUseCase, nil
}

// initElectionUseCase creates the election use case with all its dependencies.
// The vote repository serves as the tally provider for provisional results.
func (c *Container) initElectionUseCase() (electionUseCase.ElectionUseCase, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for election use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for election use case: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for election use case: %w", err)
	}

	return electionUseCase.NewElectionUseCase(
		electionRepository.NewPostgreSQLElectionRepository(db),
		votingRepository.NewPostgreSQLVoteRepository(db),
		dispatcher,
		auditLogUseCase,
		c.Clock(),
		c.Logger(),
	), nil
}
