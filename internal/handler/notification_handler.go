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

type queueProcessor interface {
	ProcessQueue(ctx context.Context, batchSize int) (models.QueueStats, error)
}

// NotificationHandler exposes the manual queue trigger used by ops tooling.
// The cron scheduler drives the same service method.
type NotificationHandler struct {
	service queueProcessor
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service queueProcessor) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Process drains up to batch_size pending notifications and reports stats.
// @Summary Process notification queue
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.ProcessQueueRequest false "Batch override"
// @Success 200 {object} response.Envelope
// @Router /notifications/process [post]
func (h *NotificationHandler) Process(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "notification service not configured"))
		return
	}

	var req dto.ProcessQueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid process payload"))
			return
		}
	}

	stats, err := h.service.ProcessQueue(c.Request.Context(), req.BatchSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
