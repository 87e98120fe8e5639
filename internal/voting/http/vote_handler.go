// Package http provides HTTP handlers for ballot operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	eligibilityDomain "github.com/openballot/openballot/internal/eligibility/domain"
	apperrors "github.com/openballot/openballot/internal/errors"
	"github.com/openballot/openballot/internal/httputil"
	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
	appvalidation "github.com/openballot/openballot/internal/validation"
	votingDomain "github.com/openballot/openballot/internal/voting/domain"
	"github.com/openballot/openballot/internal/voting/http/dto"
	votingUseCase "github.com/openballot/openballot/internal/voting/usecase"
)

// VoteHandler handles HTTP requests for ballot operations.
type VoteHandler struct {
	voteUseCase votingUseCase.VoteUseCase
	logger      *slog.Logger
}

// NewVoteHandler creates a new vote handler with required dependencies.
func NewVoteHandler(voteUseCase votingUseCase.VoteUseCase, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{
		voteUseCase: voteUseCase,
		logger:      logger,
	}
}

// CastHandler accepts a ballot submission.
// POST /v1/votes
// Returns 201 Created with the persisted vote. Stable failure codes:
// MISSING_FIELDS, INVALID_SECRET_CODE, LOCKED, ALREADY_VOTED, NOT_ELIGIBLE,
// DUPLICATE_VOTE.
func (h *VoteHandler) CastHandler(c *gin.Context) {
	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appvalidation.WrapValidationError(err), "MISSING_FIELDS", h.logger)
		return
	}

	input := &votingUseCase.CastInput{
		VoterID:     uuid.MustParse(req.VoterID),
		ElectionID:  uuid.MustParse(req.ElectionID),
		PositionID:  uuid.MustParse(req.PositionID),
		CandidateID: uuid.MustParse(req.CandidateID),
		SecretCode:  req.SecretCode,
	}

	vote, err := h.voteUseCase.Cast(c.Request.Context(), input, requestMeta(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, castFailureCode(err), h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapVoteToResponse(vote))
}

// GetHandler retrieves a vote by ID.
// GET /v1/votes/:id
func (h *VoteHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseVoteID(c)
	if !ok {
		return
	}

	vote, err := h.voteUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVoteToResponse(vote))
}

// VerifyHandler moves a cast vote to verified.
// POST /v1/votes/:id/verify
func (h *VoteHandler) VerifyHandler(c *gin.Context) {
	h.transition(c, func(id uuid.UUID, req *dto.TransitionVoteRequest) (*votingDomain.Vote, error) {
		return h.voteUseCase.Verify(c.Request.Context(), id, req.Actor)
	})
}

// CountHandler moves a verified vote to counted.
// POST /v1/votes/:id/count
func (h *VoteHandler) CountHandler(c *gin.Context) {
	h.transition(c, func(id uuid.UUID, req *dto.TransitionVoteRequest) (*votingDomain.Vote, error) {
		return h.voteUseCase.Count(c.Request.Context(), id, req.Actor)
	})
}

// InvalidateHandler permanently excludes a vote from tallies.
// POST /v1/votes/:id/invalidate
func (h *VoteHandler) InvalidateHandler(c *gin.Context) {
	h.transition(c, func(id uuid.UUID, req *dto.TransitionVoteRequest) (*votingDomain.Vote, error) {
		return h.voteUseCase.Invalidate(c.Request.Context(), id, req.Reason, req.Actor)
	})
}

// DisputeHandler flags a vote with a mandatory reason.
// POST /v1/votes/:id/dispute
func (h *VoteHandler) DisputeHandler(c *gin.Context) {
	id, ok := h.parseVoteID(c)
	if !ok {
		return
	}

	var req dto.DisputeVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appvalidation.WrapValidationError(err), "MISSING_FIELDS", h.logger)
		return
	}

	vote, err := h.voteUseCase.Dispute(c.Request.Context(), id, req.Reason, req.SubmittedBy)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVoteToResponse(vote))
}

// ResolveDisputeHandler closes a dispute, counting or invalidating the vote.
// POST /v1/votes/:id/resolve
func (h *VoteHandler) ResolveDisputeHandler(c *gin.Context) {
	id, ok := h.parseVoteID(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appvalidation.WrapValidationError(err), "MISSING_FIELDS", h.logger)
		return
	}

	vote, err := h.voteUseCase.ResolveDispute(c.Request.Context(), id, *req.CountBallot, req.Actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVoteToResponse(vote))
}

// AuditTrailHandler returns the vote's per-mutation trail.
// GET /v1/votes/:id/audit-trail
func (h *VoteHandler) AuditTrailHandler(c *gin.Context) {
	id, ok := h.parseVoteID(c)
	if !ok {
		return
	}

	entries, err := h.voteUseCase.ListAuditTrail(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditTrailToListResponse(entries))
}

func (h *VoteHandler) transition(
	c *gin.Context,
	apply func(id uuid.UUID, req *dto.TransitionVoteRequest) (*votingDomain.Vote, error),
) {
	id, ok := h.parseVoteID(c)
	if !ok {
		return
	}

	var req dto.TransitionVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appvalidation.WrapValidationError(err), "MISSING_FIELDS", h.logger)
		return
	}

	vote, err := apply(id, &req)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVoteToResponse(vote))
}

func (h *VoteHandler) parseVoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid vote id: %w", apperrors.ErrInvalidInput), "", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// castFailureCode maps domain rejections to the stable API failure codes.
func castFailureCode(err error) string {
	switch {
	case apperrors.Is(err, secretcodeDomain.ErrCodeLocked):
		return "LOCKED"
	case apperrors.Is(err, secretcodeDomain.ErrPositionConsumed):
		return "ALREADY_VOTED"
	case apperrors.Is(err, secretcodeDomain.ErrInvalidSecretCode):
		return "INVALID_SECRET_CODE"
	case apperrors.Is(err, eligibilityDomain.ErrNotEligible):
		return "NOT_ELIGIBLE"
	case apperrors.Is(err, votingDomain.ErrDuplicateVote),
		apperrors.Is(err, votingDomain.ErrDuplicateBallot):
		return "DUPLICATE_VOTE"
	}
	return ""
}

// requestMeta extracts the audit metadata carried with every submission.
func requestMeta(c *gin.Context) auditDomain.RequestMeta {
	return auditDomain.RequestMeta{
		IPAddress:         c.ClientIP(),
		UserAgent:         c.Request.UserAgent(),
		DeviceFingerprint: c.GetHeader("X-Device-Fingerprint"),
		Location:          c.GetHeader("X-Location"),
	}
}
