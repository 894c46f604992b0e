// Insights HTTP handlers.
//
//   - GET /insights         (full derived usage view)
//   - GET /insights/:month  (idempotent monthly aggregate, YYYY-MM)
//
// A month with no history yields 404, never a zero-valued record.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// GetInsights godoc
// @ID          getInsights
// @Summary     Usage insights
// @Description Returns the caller's derived usage view: totals, month-over-month trend, top interests/regions/vibes, usage histograms, satisfaction.
// @Tags        Insights
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
//
// @Success     200  {object}  analytics.Insights
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /insights [get]
func (h *Handlers) GetInsights(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	ins, err := h.insights.UserInsights(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	ok(c, http.StatusOK, ins)
}

// GetMonthlyInsights godoc
// @ID          getMonthlyInsights
// @Summary     Monthly usage aggregate
// @Description Recomputes and returns the caller's aggregate for one month (YYYY-MM). Months with no activity return 404.
// @Tags        Insights
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"        example(user123)
// @Param       month      path    string  true "Month (YYYY-MM)" example(2026-08)
//
// @Success     200  {object}  domain.MonthlyMetric
// @Failure     400  {object}  handlers.ErrorResponse "Malformed month key"
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     404  {object}  handlers.ErrorResponse "No activity that month"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /insights/{month} [get]
func (h *Handlers) GetMonthlyInsights(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	month := c.Param("month")
	if !domain.ValidMonthKey(month) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "month must have the form YYYY-MM")
		return
	}

	metric, err := h.insights.AggregateMonth(c.Request.Context(), uid, month)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if metric == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no activity recorded for "+month)
		return
	}
	ok(c, http.StatusOK, metric)
}
