package api

import (
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/internal/service"
	"github.com/calorbunga/backend/internal/types"
	"github.com/calorbunga/backend/pkg/logger"
)

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LogHandler handles food log requests
type LogHandler struct {
	store  service.ILogStore
	ingest service.IIngestionService
	export *service.ExportService
	log    *logger.Logger
}

// NewLogHandler creates a new LogHandler instance
func NewLogHandler(store service.ILogStore, ingest service.IIngestionService, export *service.ExportService, log *logger.Logger) *LogHandler {
	return &LogHandler{
		store:  store,
		ingest: ingest,
		export: export,
		log:    log,
	}
}

// RegisterRoutes registers the log routes; callers wrap the group with auth
// (and, for ingestion, rate limiting)
func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup, ingestLimiter gin.HandlerFunc) {
	log := router.Group("/log")
	{
		if ingestLimiter != nil {
			log.POST("/entries", ingestLimiter, h.Ingest)
		} else {
			log.POST("/entries", h.Ingest)
		}
		log.GET("/entries", h.ListDay)
		log.DELETE("/entries/:id", h.DeleteEntry)
		log.GET("/entries/stream", h.Stream)
		log.GET("/export", h.ExportCSV)
		log.GET("/clipboard", h.Clipboard)
		log.GET("/pending", h.GetPending)
		log.PUT("/pending", h.SavePending)
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := val.(uuid.UUID)
	return userID, ok
}

func dayParam(c *gin.Context) (string, bool) {
	day := c.Query("date")
	if !dayKeyPattern.MatchString(day) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be a YYYY-MM-DD day key"})
		return "", false
	}
	return day, true
}

// Ingest logs one submission of food text for a day. Items are processed
// sequentially; a mid-submission failure keeps the entries written so far.
func (h *LogHandler) Ingest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !dayKeyPattern.MatchString(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be a YYYY-MM-DD day key"})
		return
	}

	written, err := h.ingest.Ingest(c.Request.Context(), userID, req.Text, req.Date)
	if err != nil {
		if errors.Is(err, service.ErrIngestInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "a submission is already in progress"})
			return
		}
		h.log.Warnw("ingestion failed", "user_id", userID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Wipeout! Save failed.",
			"entries": written,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entries": written})
}

type daySnapshot struct {
	Entries []*models.FoodLogEntry `json:"entries"`
	Totals  service.DailyTotals    `json:"totals"`
	Theme   service.Theme          `json:"theme"`
}

func buildDaySnapshot(entries []*models.FoodLogEntry, day string) daySnapshot {
	filtered := service.FilterDay(entries, day)
	totals := service.AggregateDay(filtered, day)
	return daySnapshot{
		Entries: filtered,
		Totals:  totals,
		Theme:   service.ClassifyTheme(filtered, totals),
	}
}

// ListDay returns the day's entries, most recent first, with totals and the
// macro theme derived from them
func (h *LogHandler) ListDay(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	entries, err := h.store.ListDay(c.Request.Context(), userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	c.JSON(http.StatusOK, buildDaySnapshot(entries, day))
}

// DeleteEntry removes one entry by id
func (h *LogHandler) DeleteEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Stream delivers SSE snapshots of the selected day whenever the user's log
// changes. Each event carries the filtered entries with recomputed totals
// and theme. A sync failure ends the stream with an error event.
func (h *LogHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	snapshots, cancel, err := h.store.Subscribe(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync error."})
		return
	}
	defer cancel()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snapshot, open := <-snapshots:
			if !open {
				c.SSEvent("error", gin.H{"error": "Sync error."})
				return false
			}
			c.SSEvent("snapshot", buildDaySnapshot(snapshot, day))
			return true
		}
	})
}

// ExportCSV returns the day's log as a CSV attachment, or uploads it and
// returns a presigned URL when upload=true
func (h *LogHandler) ExportCSV(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	entries, err := h.store.ListDay(c.Request.Context(), userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	if c.Query("upload") == "true" {
		url, err := h.export.UploadCSV(c.Request.Context(), userID.String(), day, entries)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload export"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+service.CSVFilename(day)+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(service.BuildCSV(entries)))
}

// Clipboard returns the comma-joined entry names as plain text
func (h *LogHandler) Clipboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	entries, err := h.store.ListDay(c.Request.Context(), userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to copy."})
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.ClipboardText(entries)))
}

// GetPending returns the user's saved input buffer
func (h *LogHandler) GetPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	text, err := h.ingest.GetPendingInput(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending input"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// SavePending stores the user's unsubmitted input buffer
func (h *LogHandler) SavePending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ingest.SavePendingInput(c.Request.Context(), userID, req.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save pending input"})
		return
	}
	c.Status(http.StatusNoContent)
}
