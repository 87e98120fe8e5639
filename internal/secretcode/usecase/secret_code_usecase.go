package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
	"github.com/openballot/openballot/internal/database"
	"github.com/openballot/openballot/internal/notification"
	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
	secretcodeService "github.com/openballot/openballot/internal/secretcode/service"
)

// secretCodeUseCase implements SecretCodeUseCase.
type secretCodeUseCase struct {
	secretCodeRepo  SecretCodeRepository
	codeService     secretcodeService.CodeService
	auditRecorder   AuditRecorder
	notifier        LockoutNotifier
	txManager       database.TxManager
	clock           clock.Clock
	logger          *slog.Logger
	maxAttempts     int
	lockoutDuration time.Duration
}

// NewSecretCodeUseCase creates a new SecretCodeUseCase with the provided dependencies.
func NewSecretCodeUseCase(
	secretCodeRepo SecretCodeRepository,
	codeService secretcodeService.CodeService,
	auditRecorder AuditRecorder,
	notifier LockoutNotifier,
	txManager database.TxManager,
	clk clock.Clock,
	logger *slog.Logger,
	maxAttempts int,
	lockoutDuration time.Duration,
) SecretCodeUseCase {
	if maxAttempts <= 0 {
		maxAttempts = secretcodeDomain.MaxAttempts
	}
	if lockoutDuration <= 0 {
		lockoutDuration = secretcodeDomain.DefaultLockoutDuration
	}
	return &secretCodeUseCase{
		secretCodeRepo:  secretCodeRepo,
		codeService:     codeService,
		auditRecorder:   auditRecorder,
		notifier:        notifier,
		txManager:       txManager,
		clock:           clk,
		logger:          logger,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
	}
}

// Validate runs the validation sequence. Unknown, inactive and mismatched
// codes all surface as ErrInvalidSecretCode so responses never reveal whether
// a code exists for the voter.
func (s *secretCodeUseCase) Validate(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	submittedCode string,
	meta auditDomain.RequestMeta,
) (*Authorization, error) {
	now := s.clock.Now()

	secretCode, err := s.secretCodeRepo.GetByVoterAndElection(ctx, voterID, electionID)
	if err != nil {
		s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "code_not_found")
		return nil, secretcodeDomain.ErrInvalidSecretCode
	}

	if !secretCode.IsActive {
		s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "code_inactive")
		return nil, secretcodeDomain.ErrInvalidSecretCode
	}

	if secretCode.Locked(now) {
		s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "code_locked")
		return nil, secretcodeDomain.ErrCodeLocked
	}

	if !s.codeService.CompareCode(submittedCode, secretCode.CodeHash) {
		s.handleMismatch(ctx, secretCode, voterID, electionID, positionID, meta, now)
		return nil, secretcodeDomain.ErrInvalidSecretCode
	}

	// Successful comparison clears previous failures before anything else.
	if err := s.secretCodeRepo.ResetAttempts(ctx, secretCode.ID, now); err != nil {
		return nil, err
	}

	consumed, err := s.secretCodeRepo.HasConsumedPosition(ctx, secretCode.ID, positionID)
	if err != nil {
		return nil, err
	}
	if consumed {
		s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "position_consumed")
		return nil, secretcodeDomain.ErrPositionConsumed
	}

	s.auditValidation(ctx, voterID, electionID, positionID, meta, true, "")

	return &Authorization{
		secretCodeID: secretCode.ID,
		voterID:      voterID,
		electionID:   electionID,
		positionID:   positionID,
		grantedAt:    now,
	}, nil
}

// handleMismatch accounts a failed comparison and locks the code when the
// attempt limit is reached. The increment runs in the database so concurrent
// failures cannot bypass the limit.
func (s *secretCodeUseCase) handleMismatch(
	ctx context.Context,
	secretCode *secretcodeDomain.SecretCode,
	voterID, electionID, positionID uuid.UUID,
	meta auditDomain.RequestMeta,
	now time.Time,
) {
	attempts, err := s.secretCodeRepo.IncrementAttempts(ctx, secretCode.ID, now)
	if err != nil {
		s.logger.Error("failed to increment secret code attempts",
			slog.String("secret_code_id", secretCode.ID.String()),
			slog.String("error", err.Error()),
		)
		s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "code_mismatch")
		return
	}

	s.auditValidation(ctx, voterID, electionID, positionID, meta, false, "code_mismatch")

	if attempts < s.maxAttempts {
		return
	}

	until := now.Add(s.lockoutDuration)
	if err := s.secretCodeRepo.Lock(ctx, secretCode.ID, until, now); err != nil {
		s.logger.Error("failed to lock secret code",
			slog.String("secret_code_id", secretCode.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionSecretCodeLockout,
		ResourceType: "secret_code",
		ResourceID:   secretCode.ID.String(),
		Success:      true,
		Detail: map[string]any{
			"election_id":  electionID.String(),
			"attempts":     attempts,
			"locked_until": until.Format(time.RFC3339),
		},
		RequestMeta: meta,
	})

	if s.notifier != nil {
		err := s.notifier.Dispatch(ctx, voterID.String(), notification.TemplateLockoutNotice, map[string]any{
			"election_id":  electionID.String(),
			"locked_until": until.Format(time.RFC3339),
		})
		if err != nil {
			s.logger.Error("failed to dispatch lockout notice",
				slog.String("voter_id", voterID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// MarkConsumed appends the consumed position. Called after ballot persistence
// so a failed vote insert never burns the code.
func (s *secretCodeUseCase) MarkConsumed(ctx context.Context, auth *Authorization, candidateID uuid.UUID) error {
	return s.secretCodeRepo.AddConsumedPosition(ctx, &secretcodeDomain.ConsumedPosition{
		ID:           uuid.Must(uuid.NewV7()),
		SecretCodeID: auth.secretCodeID,
		PositionID:   auth.positionID,
		CandidateID:  candidateID,
		VotedAt:      s.clock.Now(),
	})
}

// Issue creates and stores a new code. The plain code is returned exactly
// once for delivery to the voter.
func (s *secretCodeUseCase) Issue(ctx context.Context, voterID, electionID uuid.UUID) (*IssueOutput, error) {
	plainCode, codeHash, err := s.codeService.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	secretCode := &secretcodeDomain.SecretCode{
		ID:         uuid.Must(uuid.NewV7()),
		VoterID:    voterID,
		ElectionID: electionID,
		CodeHash:   codeHash,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.secretCodeRepo.Create(ctx, secretCode); err != nil {
		return nil, err
	}

	s.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionSecretCodeIssue,
		ResourceType: "secret_code",
		ResourceID:   secretCode.ID.String(),
		Success:      true,
		Detail: map[string]any{
			"election_id": electionID.String(),
		},
	})

	return &IssueOutput{
		SecretCodeID: secretCode.ID,
		PlainCode:    plainCode,
	}, nil
}

// Reissue replaces the active code for a (voter, election) pair. The old
// code is deactivated and a fresh one created in one transaction, with the
// consumed positions copied over so a replacement never re-opens a position
// the voter already voted for.
func (s *secretCodeUseCase) Reissue(ctx context.Context, voterID, electionID uuid.UUID) (*IssueOutput, error) {
	previous, err := s.secretCodeRepo.GetByVoterAndElection(ctx, voterID, electionID)
	if err != nil {
		return nil, err
	}

	plainCode, codeHash, err := s.codeService.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	secretCode := &secretcodeDomain.SecretCode{
		ID:         uuid.Must(uuid.NewV7()),
		VoterID:    voterID,
		ElectionID: electionID,
		CodeHash:   codeHash,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		consumed, err := s.secretCodeRepo.ListConsumedPositions(ctx, previous.ID)
		if err != nil {
			return err
		}
		if err := s.secretCodeRepo.Deactivate(ctx, previous.ID, now); err != nil {
			return err
		}
		if err := s.secretCodeRepo.Create(ctx, secretCode); err != nil {
			return err
		}
		for _, usage := range consumed {
			err := s.secretCodeRepo.AddConsumedPosition(ctx, &secretcodeDomain.ConsumedPosition{
				ID:           uuid.Must(uuid.NewV7()),
				SecretCodeID: secretCode.ID,
				PositionID:   usage.PositionID,
				CandidateID:  usage.CandidateID,
				VotedAt:      usage.VotedAt,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionSecretCodeIssue,
		ResourceType: "secret_code",
		ResourceID:   secretCode.ID.String(),
		Success:      true,
		Detail: map[string]any{
			"election_id":   electionID.String(),
			"reissued_from": previous.ID.String(),
		},
	})

	return &IssueOutput{
		SecretCodeID: secretCode.ID,
		PlainCode:    plainCode,
	}, nil
}

func (s *secretCodeUseCase) auditValidation(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	meta auditDomain.RequestMeta,
	success bool,
	reason string,
) {
	detail := map[string]any{
		"election_id": electionID.String(),
		"position_id": positionID.String(),
	}
	if reason != "" {
		detail["reason"] = reason
	}

	s.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionSecretCodeValidate,
		ResourceType: "secret_code",
		Success:      success,
		Detail:       detail,
		RequestMeta:  meta,
	})
}
