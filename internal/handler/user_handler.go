package handler

import (
	"github.com/gin-gonic/gin"

	"invoicex/internal/domain"
	"invoicex/internal/service"
)

// UserHandler handles per-user dashboard endpoints.
type UserHandler struct {
	statsService service.StatsService
	settings     domain.ExtractorSettings
}

// NewUserHandler creates a new UserHandler. settings describes the active
// extraction provider and never carries credentials.
func NewUserHandler(statsService service.StatsService, settings domain.ExtractorSettings) *UserHandler {
	return &UserHandler{statsService: statsService, settings: settings}
}

// Stats handles GET /api/v1/users/stats
// @Summary Get invoice statistics
// @Description Totals, average confidence of completed invoices, success rate and uploads per month for the last six months.
// @Tags users
// @Produce json
// @Success 200 {object} Response{data=domain.InvoiceStats} "Usage statistics"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stats)
}

// Settings handles GET /api/v1/users/settings
// @Summary Get extraction settings
// @Tags users
// @Produce json
// @Success 200 {object} Response{data=domain.ExtractorSettings} "Active provider and model"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /users/settings [get]
func (h *UserHandler) Settings(c *gin.Context) {
	if _, ok := extractUserID(c); !ok {
		return
	}
	RespondOK(c, h.settings)
}
