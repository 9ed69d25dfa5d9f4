package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/finsync/internal/apperrors"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/dto"
	"github.com/SscSPs/finsync/internal/middleware"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/gin-gonic/gin"
)

// syncHandler handles HTTP requests related to sync sessions.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

// newSyncHandler creates a new syncHandler.
func newSyncHandler(ss portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{
		syncService: ss,
	}
}

// registerSyncRoutes registers routes related to sync sessions. startLimit
// guards only the route that starts scraping.
func registerSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade, startLimit gin.HandlerFunc) {
	h := newSyncHandler(syncService)

	sync := rg.Group("/sync")
	{
		sync.POST("", startLimit, h.startSync)
		sync.GET("/sessions/:credentialId", h.getSessionStatus)
		sync.GET("/last-transaction-date", h.getLastTransactionDate)
	}
}

// startSync godoc
// @Summary Start a sync session
// @Description Scrapes one vendor account and streams progress as server-sent events (progress, complete, error)
// @Tags sync
// @Accept  json
// @Produce  text/event-stream
// @Param   request body dto.StartSyncRequest true "Credential and date range"
// @Success 200 {string} string "Event stream"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "A session is already running for this credential"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to start sync"
// @Router /sync [post]
func (h *syncHandler) startSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.StartSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for StartSync", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	syncReq, err := req.ToDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.syncService.StartSession(c.Request.Context(), syncReq)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Rejected sync request", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Sync already running", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to start sync session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sync"})
		}
		return
	}

	logger = logger.With(slog.String("session_id", stream.SessionID()))
	logger.Info("Sync session started, streaming progress")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	enc := progress.NewEncoder(c.Writer)
	events := stream.Events()
	for {
		select {
		case <-c.Request.Context().Done():
			logger.Info("Client disconnected from sync stream")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				logger.Warn("Failed to write sync event", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// getSessionStatus godoc
// @Summary Get sync session status
// @Description Returns the running session of a credential, or the most recently finished one
// @Tags sync
// @Produce  json
// @Param   credentialId path string true "Credential ID"
// @Success 200 {object} dto.SyncSessionResponse
// @Failure 404 {object} map[string]string "No session for this credential"
// @Failure 500 {object} map[string]string "Failed to retrieve session"
// @Router /sync/sessions/{credentialId} [get]
func (h *syncHandler) getSessionStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	credentialID := c.Param("credentialId")

	session, err := h.syncService.GetSessionStatus(c.Request.Context(), credentialID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No sync session found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to get sync session", slog.String("credential_id", credentialID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncSessionResponse(session))
}

// getLastTransactionDate godoc
// @Summary Get the last stored transaction date
// @Description Returns the newest stored transaction date of a vendor, used to pick a gap-fill start date
// @Tags sync
// @Produce  json
// @Param   vendor query string true "Vendor"
// @Success 200 {object} dto.LastTransactionDateResponse
// @Failure 400 {object} map[string]string "Missing vendor"
// @Failure 500 {object} map[string]string "Failed to retrieve date"
// @Router /sync/last-transaction-date [get]
func (h *syncHandler) getLastTransactionDate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	vendor := c.Query("vendor")

	last, err := h.syncService.LastTransactionDate(c.Request.Context(), vendor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to get last transaction date", slog.String("vendor", vendor), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve last transaction date"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLastTransactionDateResponse(last))
}
