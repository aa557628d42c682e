package api

import (
	"net/http"
	"strconv"
	"time"

	"vocabsrs/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// LearnerHeader carries the authenticated learner id set by the upstream proxy
const LearnerHeader = "X-Learner-ID"

const learnerKey = "learner_id"

// NewRouter wires the routes onto a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", learnerIdentity())
	{
		v1.GET("/reviews/due", h.ListDue)
		v1.POST("/reviews", h.SubmitReview)
		v1.POST("/reviews/batch", h.SubmitBatch)
		v1.GET("/stats", h.GetStats)
		v1.GET("/stats/forecast", h.GetForecast)
		v1.GET("/progress/:vocabularyId", h.GetProgress)
		v1.DELETE("/progress/:vocabularyId", h.ResetProgress)
	}

	return r
}

// learnerIdentity rejects requests without a valid learner id
func learnerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(LearnerHeader), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing or invalid " + LearnerHeader})
			return
		}
		c.Set(learnerKey, id)
		c.Next()
	}
}

func learnerID(c *gin.Context) int64 {
	return c.GetInt64(learnerKey)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Debug("Request served", fields...)
	}
}
