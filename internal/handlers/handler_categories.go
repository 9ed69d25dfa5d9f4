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

// categoryHandler handles manual category corrections and rules.
type categoryHandler struct {
	categorizationService portssvc.CategorizationSvcFacade
}

// newCategoryHandler creates a new categoryHandler.
func newCategoryHandler(cs portssvc.CategorizationSvcFacade) *categoryHandler {
	return &categoryHandler{
		categorizationService: cs,
	}
}

// registerCategoryRoutes registers routes related to categories.
func registerCategoryRoutes(rg *gin.RouterGroup, categorizationService portssvc.CategorizationSvcFacade) {
	h := newCategoryHandler(categorizationService)

	categories := rg.Group("/categories")
	{
		categories.POST("/update-by-description", h.updateCategoryByDescription)
		categories.GET("/rules", h.listRules)
		categories.DELETE("/rules/:ruleId", h.deleteRule)
	}
}

// updateCategoryByDescription godoc
// @Summary Re-categorize transactions by description
// @Description Sets the category of every stored transaction with the description. With createRule, future transactions with that description get the category too.
// @Tags categories
// @Accept  json
// @Produce  json
// @Param   request body dto.UpdateCategoryByDescriptionRequest true "Description and category"
// @Success 200 {object} dto.UpdateCategoryByDescriptionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to update category"
// @Router /categories/update-by-description [post]
func (h *categoryHandler) updateCategoryByDescription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateCategoryByDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateCategoryByDescription", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	updated, err := h.categorizationService.UpdateCategoryByDescription(c.Request.Context(), req.Description, req.NewCategory, req.CreateRule)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update category by description", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		}
		return
	}

	logger.Info("Category updated by description", slog.Int("transactions_updated", updated), slog.Bool("create_rule", req.CreateRule))
	c.JSON(http.StatusOK, dto.UpdateCategoryByDescriptionResponse{TransactionsUpdated: updated})
}

// listRules godoc
// @Summary List category rules
// @Tags categories
// @Produce  json
// @Success 200 {array} dto.CategoryRuleResponse
// @Failure 500 {object} map[string]string "Failed to list rules"
// @Router /categories/rules [get]
func (h *categoryHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rules, err := h.categorizationService.ListCategoryRules(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list category rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rules"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListCategoryRuleResponse(rules))
}

// deleteRule godoc
// @Summary Delete a category rule
// @Tags categories
// @Param   ruleId path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 500 {object} map[string]string "Failed to delete rule"
// @Router /categories/rules/{ruleId} [delete]
func (h *categoryHandler) deleteRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("ruleId")

	if err := h.categorizationService.DeleteCategoryRule(c.Request.Context(), ruleID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to delete category rule", slog.String("rule_id", ruleID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
