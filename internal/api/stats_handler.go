package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobtrail/internal/stats"
)

// StatsHandler 返回当前用户求职进展的聚合数字。
type StatsHandler struct {
	db *gorm.DB
}

// NewStatsHandler 构造 StatsHandler。
func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// GetStats 每次请求都基于当前记录重新计算，无缓存。
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	summary, err := stats.Compute(c.Request.Context(), h.db, userID)
	if err != nil {
		Internal(c, "failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, summary)
}
