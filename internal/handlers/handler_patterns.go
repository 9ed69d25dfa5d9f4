package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/finsync/internal/apperrors"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/dto"
	"github.com/SscSPs/finsync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// patternHandler handles HTTP requests for installment and recurring groups.
type patternHandler struct {
	patternService portssvc.PatternSvcFacade
}

// newPatternHandler creates a new patternHandler.
func newPatternHandler(ps portssvc.PatternSvcFacade) *patternHandler {
	return &patternHandler{
		patternService: ps,
	}
}

// registerPatternRoutes registers routes for derived groups and exclusion marks.
func registerPatternRoutes(rg *gin.RouterGroup, patternService portssvc.PatternSvcFacade) {
	h := newPatternHandler(patternService)

	rg.GET("/recurring-payments", h.queryPatterns)

	exclusions := rg.Group("/non-recurring-exclusions")
	{
		exclusions.POST("", h.addExclusion)
		exclusions.GET("", h.listExclusions)
		exclusions.DELETE("/:id", h.removeExclusion)
	}
}

// queryPatterns godoc
// @Summary List installment plans or recurring payments
// @Description Returns one page of derived groups. Pass the snapshot token from the first page to later pages to page over a stable result set.
// @Tags patterns
// @Produce  json
// @Param   type query string true "installments or recurring" Enums(installments, recurring)
// @Param   sortBy query string false "amount, count, nextPaymentDate, name (installments also totalAmount, remaining)"
// @Param   sortOrder query string false "asc or desc" Enums(asc, desc)
// @Param   limit query int false "Page size (1-200, default 25)"
// @Param   offset query int false "Page offset"
// @Param   frequency query string false "Recurring only" Enums(monthly, bi-monthly)
// @Param   status query string false "active|completed for installments, active|inactive for recurring"
// @Param   vendor query string false "Vendor filter"
// @Param   snapshot query string false "Snapshot token from a previous page"
// @Success 200 {object} dto.PatternPageResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 500 {object} map[string]string "Failed to compute groups"
// @Router /recurring-payments [get]
func (h *patternHandler) queryPatterns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.PatternQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for QueryPatterns", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	query, err := params.ToDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.patternService.QueryPatterns(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to query patterns", slog.String("type", params.Type), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute payment groups"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPatternPageResponse(page))
}

// addExclusion godoc
// @Summary Exclude a payment from recurring detection
// @Description Marks a description/account pair as not recurring. Adding the same pair twice returns the existing mark.
// @Tags patterns
// @Accept  json
// @Produce  json
// @Param   exclusion body dto.CreateExclusionRequest true "Name and account"
// @Success 201 {object} dto.ExclusionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to add exclusion"
// @Router /non-recurring-exclusions [post]
func (h *patternHandler) addExclusion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddExclusion", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	mark, err := h.patternService.AddExclusion(c.Request.Context(), req.Name, req.AccountNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to add exclusion", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add exclusion"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToExclusionResponse(*mark))
}

// listExclusions godoc
// @Summary List recurring exclusions
// @Tags patterns
// @Produce  json
// @Success 200 {array} dto.ExclusionResponse
// @Failure 500 {object} map[string]string "Failed to list exclusions"
// @Router /non-recurring-exclusions [get]
func (h *patternHandler) listExclusions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	marks, err := h.patternService.ListExclusions(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list exclusions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exclusions"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListExclusionResponse(marks))
}

// removeExclusion godoc
// @Summary Remove a recurring exclusion
// @Tags patterns
// @Param   id path string true "Exclusion ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Exclusion not found"
// @Failure 500 {object} map[string]string "Failed to remove exclusion"
// @Router /non-recurring-exclusions/{id} [delete]
func (h *patternHandler) removeExclusion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	exclusionID := c.Param("id")

	if err := h.patternService.RemoveExclusion(c.Request.Context(), exclusionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Exclusion not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to remove exclusion", slog.String("exclusion_id", exclusionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove exclusion"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
