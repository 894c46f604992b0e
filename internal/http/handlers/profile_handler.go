// Profile HTTP handlers.
//
//   - GET    /profile  (fetch, created on first authenticated access)
//   - PUT    /profile  (allow-listed partial update)
//   - DELETE /profile  (account deletion with cascade)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for a partial profile update.
// Absent fields keep their previous value; the quota counter is never
// client-writable.
type UpdateProfileRequest struct {
	Tier        *string   `json:"tier,omitempty" example:"light"`
	Region      *string   `json:"region,omitempty" example:"jp"`
	Interests   *[]string `json:"interests,omitempty"`
	AvoidTopics *[]string `json:"avoid_topics,omitempty"`
	Style       *string   `json:"conversation_style,omitempty" example:"casual"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch own profile
// @Description Returns the caller's profile, creating a free-tier profile on first authenticated access.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
//
// @Success     200  {object}  domain.UserProfile
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	p, err := h.profiles.GetOrCreate(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update own profile
// @Description Applies an allow-listed partial update: tier, region, interests (≤20), avoid topics (≤20), conversation style.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Fields to update"
//
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	upd := services.ProfileUpdate{
		Region:      req.Region,
		Interests:   req.Interests,
		AvoidTopics: req.AvoidTopics,
	}
	if req.Tier != nil {
		t := domain.Tier(*req.Tier)
		upd.Tier = &t
	}
	if req.Style != nil {
		s := domain.ConversationStyle(*req.Style)
		upd.Style = &s
	}

	p, err := h.profiles.Update(c.Request.Context(), uid, upd)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProfile godoc
// @ID          deleteProfile
// @Summary     Delete own profile
// @Description Removes the profile and cascade-deletes the caller's history and favorites.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [delete]
func (h *Handlers) DeleteProfile(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), uid); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
