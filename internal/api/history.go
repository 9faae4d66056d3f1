package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"papersum/internal/models"
	"papersum/internal/render"
	"papersum/internal/storage"
	"papersum/internal/util"
)

type historyItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Markdown    string    `json:"markdown"`
	OriginalURL *string   `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toHistoryItem(h models.SummaryHistory) historyItem {
	return historyItem{
		ID:          h.ID,
		Title:       util.MarkdownTitle(h.Summary),
		Summary:     render.HTML(h.Summary),
		Markdown:    h.Summary,
		OriginalURL: h.OriginalURL,
		CreatedAt:   h.CreatedAt,
	}
}

// handleHistory lists the caller's summaries, newest first. Guests have no
// history.
func (s *Server) handleHistory(c *gin.Context) {
	limit := storage.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(c, http.StatusBadRequest, err)
			return
		}
		limit = n
	}
	uid := userPtr(c)
	items := make([]historyItem, 0)
	if uid != nil && s.store != nil {
		rows, err := s.store.ListByUser(c.Request.Context(), uid, limit)
		if err != nil {
			writeErr(c, http.StatusInternalServerError, err)
			return
		}
		for _, h := range rows {
			items = append(items, toHistoryItem(h))
		}
	}
	c.JSON(http.StatusOK, gin.H{"history": items, "guest": uid == nil})
}

// handleHistoryItem renders one record. Records owned by a user are only
// visible to that user.
func (s *Server) handleHistoryItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeErr(c, http.StatusBadRequest, err)
		return
	}
	if s.store == nil {
		writeErr(c, http.StatusNotFound, nil)
		return
	}
	rec, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(c, http.StatusInternalServerError, err)
		return
	}
	if rec.UserID != nil {
		uid, ok := UserID(c)
		if !ok || uid != *rec.UserID {
			writeErr(c, http.StatusNotFound, nil)
			return
		}
	}
	c.JSON(http.StatusOK, toHistoryItem(rec))
}
