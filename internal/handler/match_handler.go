package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhire/match-api/internal/dto"
	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
	"github.com/schoolhire/match-api/pkg/response"
)

type statusService interface {
	SetStatus(ctx context.Context, matchID string, req dto.UpdateStatusRequest) (*models.CandidateMatch, error)
	SetStatusBulk(ctx context.Context, req dto.BulkStatusRequest) dto.BulkStatusResult
}

type matchFinder interface {
	FindMatches(ctx context.Context, jobID string) ([]models.RankedCandidate, int, error)
}

// MatchHandler exposes status transitions and the fan-out trigger.
type MatchHandler struct {
	status statusService
	finder matchFinder
}

// NewMatchHandler constructs the handler.
func NewMatchHandler(status statusService, finder matchFinder) *MatchHandler {
	return &MatchHandler{status: status, finder: finder}
}

// UpdateStatus godoc
// @Summary Update match status
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match id"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/status [patch]
func (h *MatchHandler) UpdateStatus(c *gin.Context) {
	if h.status == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}

	matchID := c.Param("id")
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}

	match, err := h.status.SetStatus(c.Request.Context(), matchID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// UpdateStatusBulk applies one status to many matches, independently per row.
// The response always carries per-row outcomes; partial failure is not an
// HTTP error.
// @Summary Bulk update match status
// @Tags Matches
// @Accept json
// @Produce json
// @Param payload body dto.BulkStatusRequest true "Bulk status payload"
// @Success 200 {object} response.Envelope
// @Router /matches/status/bulk [post]
func (h *MatchHandler) UpdateStatusBulk(c *gin.Context) {
	if h.status == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}

	var req dto.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk status payload"))
		return
	}

	result := h.status.SetStatusBulk(c.Request.Context(), req)
	response.JSON(c, http.StatusOK, result, nil)
}

// FindMatches runs the fan-out ranking for a job and returns the admitted
// candidates. Match persistence and teacher notifications happen as side
// effects.
// @Summary Find matches for job
// @Tags Matches
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/matches [post]
func (h *MatchHandler) FindMatches(c *gin.Context) {
	if h.finder == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match finder not configured"))
		return
	}

	jobID := c.Param("id")
	ranked, created, err := h.finder.FindMatches(c.Request.Context(), jobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FindMatchesResponse{
		JobID:   jobID,
		Matches: ranked,
		Created: created,
	}, nil)
}
