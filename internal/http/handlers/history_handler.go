// History HTTP handlers.
//
//   - GET    /history               (list, paginated, newest first)
//   - GET    /history/:id           (single entry, owner only)
//   - POST   /history/:id/feedback  (rating 1–5, text, was_helpful)
//   - DELETE /history/:id           (owner only)
//   - DELETE /history               (wipe own history)
//
// Every operation is owner-scoped: an entry owned by another user yields
// 403, never a silent no-op.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// FeedbackRequest is the JSON payload for post-hoc advice feedback.
type FeedbackRequest struct {
	// Rating scores the advice from 1 (useless) to 5 (excellent).
	Rating *int `json:"rating,omitempty" example:"4"`
	// Feedback is optional free text.
	Feedback string `json:"feedback,omitempty" example:"the playlist tip landed"`
	// WasHelpful records a simple thumbs signal.
	WasHelpful *bool `json:"was_helpful,omitempty" example:"true"`
}

// ListHistoryResponse wraps a page of history entries with pagination
// metadata.
type ListHistoryResponse struct {
	History    []domain.AdviceHistory `json:"history"`
	Pagination Pagination             `json:"pagination"`
}

// historyID validates the :id path param.
func historyID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "history id must be a UUID")
		return "", false
	}
	return id, true
}

// ListHistory godoc
// @ID          listHistory
// @Summary     List advice history (paginated)
// @Description Returns a page of the caller's advice history, newest first.
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListHistoryResponse
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.history.ListPage(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListHistoryResponse{
		History: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetHistory godoc
// @ID          getHistory
// @Summary     Fetch one history entry
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"          example(user123)
// @Param       id         path    string  true "History ID (UUID)" format(uuid)
//
// @Success     200  {object}  domain.AdviceHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /history/{id} [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id, okID := historyID(c)
	if !okID {
		return
	}
	entry, err := h.history.Get(c.Request.Context(), uid, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate a past advice response
// @Description Records rating (1–5), free-text feedback, and/or a helpfulness flag on an owned history entry.
// @Tags        History
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"           example(user123)
// @Param       id         path    string  true "History ID (UUID)"  format(uuid)
// @Param       body       body    handlers.FeedbackRequest  true  "Feedback payload"
//
// @Success     200  {object}  domain.AdviceHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /history/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id, okID := historyID(c)
	if !okID {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Rating == nil && strings.TrimSpace(req.Feedback) == "" && req.WasHelpful == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "feedback payload is empty")
		return
	}

	entry, err := h.history.Feedback(c.Request.Context(), uid, id, req.Rating, req.Feedback, req.WasHelpful)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// DeleteHistory godoc
// @ID          deleteHistory
// @Summary     Delete one history entry
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"           example(user123)
// @Param       id         path    string  true "History ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /history/{id} [delete]
func (h *Handlers) DeleteHistory(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id, okID := historyID(c)
	if !okID {
		return
	}
	if err := h.history.Delete(c.Request.Context(), uid, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DeleteAllHistory godoc
// @ID          deleteAllHistory
// @Summary     Delete all own history
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /history [delete]
func (h *Handlers) DeleteAllHistory(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	if err := h.history.DeleteAll(c.Request.Context(), uid); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
