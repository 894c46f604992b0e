// Favorite HTTP handlers.
//
//   - POST   /favorites        (bookmark a vibe or an owned advice entry)
//   - GET    /favorites?type=  (list own favorites, optional type filter)
//   - DELETE /favorites/:id    (remove an owned favorite)
//
// Duplicate bookmarks per (type, reference) are rejected with 409.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// AddFavoriteRequest is the JSON payload for creating a favorite.
type AddFavoriteRequest struct {
	// Type is "vibe" or "advice".
	Type string `json:"type" binding:"required" example:"vibe"`
	// ReferenceID is the UUID of the bookmarked record.
	ReferenceID string `json:"reference_id" binding:"required" format:"uuid"`
	// Note is an optional personal annotation.
	Note string `json:"note,omitempty" example:"great icebreaker"`
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Bookmark a vibe or advice entry
// @Description The referenced record must exist; advice entries must be owned by the caller. Duplicates are rejected.
// @Tags        Favorites
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
// @Param       body       body    handlers.AddFavoriteRequest  true  "Favorite payload"
//
// @Success     201  {object}  domain.Favorite
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse "Referenced advice owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse "Referenced record not found"
// @Failure     409  {object}  handlers.ErrorResponse "Already favorited"
// @Router      /favorites [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: type and reference_id required")
		return
	}
	if _, err := uuid.Parse(req.ReferenceID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reference_id must be a UUID")
		return
	}

	f, err := h.favorites.Add(c.Request.Context(), uid, domain.FavoriteType(req.Type), req.ReferenceID, req.Note)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List own favorites
// @Tags        Favorites
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       type       query   string  false "Filter by type" Enums(vibe, advice)
//
// @Success     200  {array}   domain.Favorite
// @Failure     400  {object}  handlers.ErrorResponse "Unknown type filter"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	items, err := h.favorites.List(c.Request.Context(), uid, domain.FavoriteType(c.Query("type")))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Favorite{}
	}
	ok(c, http.StatusOK, items)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a favorite
// @Tags        Favorites
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"            example(user123)
// @Param       id         path    string  true "Favorite ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /favorites/{id} [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "favorite id must be a UUID")
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), uid, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
