// Administrative HTTP handlers.
//
//   - POST /admin/quota/reset  (zero every user's monthly counter)
//
// The endpoint is gated by a shared secret carried in X-Admin-Secret and
// compared in constant time. With no secret configured the endpoint always
// denies.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/http/middleware"
	"github.com/tbourn/go-vibes-backend/internal/sysutil"
)

// ResetQuotas godoc
// @ID          resetQuotas
// @Summary     Reset all monthly quota counters
// @Description Privileged maintenance operation: zeroes every user's counter for the current month. Requires the X-Admin-Secret header.
// @Tags        Admin
// @Produce     json
//
// @Param       X-Admin-Secret  header  string  true "Shared admin secret"
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Missing or wrong secret"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/quota/reset [post]
func (h *Handlers) ResetQuotas(c *gin.Context) {
	if !sysutil.SecureCompare(c.GetHeader("X-Admin-Secret"), h.adminSecret) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin secret required")
		return
	}
	if err := h.quota.ResetAll(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	middleware.LoggerFrom(c).Info().Msg("all quota counters reset")
	noContent(c)
}
