// Vibe catalog HTTP handlers.
//
//   - GET  /vibes      (decay-adjusted listing)
//   - GET  /vibes/:id  (single fetch)
//   - POST /vibes      (upsert; ingestion seam)
//
// All reads report current_relevance computed at the server's UTC clock.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// UpsertVibeRequest is the JSON payload for inserting or updating a vibe.
// On update, strength and first_seen are immutable and the stored values win.
type UpsertVibeRequest struct {
	ID          string    `json:"id,omitempty" format:"uuid"`
	Name        string    `json:"name" binding:"required" example:"city pop revival"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category" binding:"required" example:"music"`
	Keywords    []string  `json:"keywords,omitempty"`
	Strength    float64   `json:"strength" example:"0.8"`
	Sentiment   string    `json:"sentiment,omitempty" example:"positive"`
	Region      string    `json:"region,omitempty" example:"jp"`
	FirstSeen   time.Time `json:"first_seen,omitempty"`
}

// ListVibes godoc
// @ID          listVibes
// @Summary     List the vibe catalog
// @Description Returns every tracked cultural signal with its decay-adjusted current relevance.
// @Tags        Vibes
// @Produce     json
//
// @Success     200  {array}   domain.Vibe
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /vibes [get]
func (h *Handlers) ListVibes(c *gin.Context) {
	vibes, err := h.vibes.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	if vibes == nil {
		vibes = []domain.Vibe{}
	}
	ok(c, http.StatusOK, vibes)
}

// GetVibe godoc
// @ID          getVibe
// @Summary     Fetch one vibe
// @Tags        Vibes
// @Produce     json
//
// @Param       id  path  string  true "Vibe ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Vibe
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /vibes/{id} [get]
func (h *Handlers) GetVibe(c *gin.Context) {
	v, err := h.vibes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// UpsertVibe godoc
// @ID          upsertVibe
// @Summary     Insert or update a vibe
// @Description Ingestion seam: creates a new signal or refreshes an existing one. Base strength is immutable after creation.
// @Tags        Vibes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpsertVibeRequest  true  "Vibe payload"
//
// @Success     200  {object}  domain.Vibe
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /vibes [post]
func (h *Handlers) UpsertVibe(c *gin.Context) {
	var req UpsertVibeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: name and category required")
		return
	}

	v := &domain.Vibe{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Keywords:    req.Keywords,
		Strength:    req.Strength,
		Sentiment:   domain.Sentiment(req.Sentiment),
		Region:      req.Region,
		FirstSeen:   req.FirstSeen,
	}
	saved, err := h.vibes.Upsert(c.Request.Context(), v)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, saved)
}
