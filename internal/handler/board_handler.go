package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
	"github.com/schoolhire/match-api/pkg/response"
)

type boardService interface {
	Board(ctx context.Context, jobIDs []string, filter models.BoardFilter) ([]models.CandidateView, error)
}

// BoardHandler exposes the aggregated candidate board.
type BoardHandler struct {
	service boardService
}

// NewBoardHandler constructs the handler.
func NewBoardHandler(service boardService) *BoardHandler {
	return &BoardHandler{service: service}
}

// Get returns the merged candidate views for a job. Accepts repeated or
// comma-separated status and archetype query parameters.
// @Summary Get candidate board
// @Tags Board
// @Produce json
// @Param id path string true "Job id"
// @Param status query string false "Filter by pipeline status"
// @Param archetype query string false "Filter by archetype"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/board [get]
func (h *BoardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "board service not configured"))
		return
	}

	jobID := c.Param("id")
	if jobID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "job id is required"))
		return
	}

	filter := models.BoardFilter{Archetypes: splitQuery(c.QueryArray("archetype"))}
	for _, raw := range splitQuery(c.QueryArray("status")) {
		status, err := models.ParseMatchStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	views, err := h.service.Board(c.Request.Context(), []string{jobID}, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// splitQuery flattens repeated query values and comma-separated lists.
func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
