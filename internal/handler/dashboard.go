package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
)

type DashboardHandler struct {
	stats *service.StatsService
}

func NewDashboardHandler(stats *service.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	summary, err := h.stats.Summary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) StatusDistribution(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	dist, err := h.stats.Distribution(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

func parseDateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{
		{"date_from", &from},
		{"date_to", &to},
	} {
		if v := c.Query(q.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respondValidation(c, q.name+" must be an RFC3339 timestamp")
				return nil, nil, false
			}
			*q.dst = &t
		}
	}
	return from, to, true
}
