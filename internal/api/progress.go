package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultForecastDays = 7

type forecastDay struct {
	Date  string `json:"date"`
	Cards int    `json:"cards"`
}

// GetStats handles GET /v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context(), learnerID(c), levelsFromQuery(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetForecast handles GET /v1/stats/forecast
func (h *Handler) GetForecast(c *gin.Context) {
	horizon := defaultForecastDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "days must be an integer")
			return
		}
		horizon = n
	}

	days, err := h.stats.Forecast(c.Request.Context(), learnerID(c), horizon)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]forecastDay, 0, len(days))
	for _, d := range days {
		out = append(out, forecastDay{Date: d.Date.Format("2006-01-02"), Cards: d.CardCount})
	}
	c.JSON(http.StatusOK, gin.H{"days": out})
}

// GetProgress handles GET /v1/progress/:vocabularyId
func (h *Handler) GetProgress(c *gin.Context) {
	record, err := h.reviews.GetProgress(c.Request.Context(), learnerID(c), c.Param("vocabularyId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ResetProgress handles DELETE /v1/progress/:vocabularyId
func (h *Handler) ResetProgress(c *gin.Context) {
	if err := h.reviews.ResetProgress(c.Request.Context(), learnerID(c), c.Param("vocabularyId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
