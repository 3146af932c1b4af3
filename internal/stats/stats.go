// Package stats derives aggregate numbers from a user's current
// application records. Nothing here is persisted; every call recomputes
// from the database.
package stats

import (
	"context"
	"math"

	"gorm.io/gorm"

	"jobtrail/internal/database"
)

// Summary is the payload returned by the stats endpoint.
type Summary struct {
	TotalApplications int64            `json:"total_applications"`
	ByStatus          map[string]int64 `json:"by_status"`
	ResponseRate      float64          `json:"response_rate"`
}

// Compute groups the caller's applications by status and derives the
// response rate: applications that got any employer verdict (interview,
// offer, rejected) over applications that were at least applied.
// "ghosted" counts as applied-but-unanswered, so it only grows the
// denominator.
func Compute(ctx context.Context, db *gorm.DB, userID uint) (Summary, error) {
	type statusRow struct {
		Status string
		Cnt    int64
	}

	var rows []statusRow
	if err := db.WithContext(ctx).
		Model(&database.Application{}).
		Select("status, COUNT(*) AS cnt").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return Summary{}, err
	}

	summary := Summary{ByStatus: make(map[string]int64)}
	for _, row := range rows {
		summary.ByStatus[row.Status] = row.Cnt
		summary.TotalApplications += row.Cnt
	}

	responded := summary.ByStatus[database.StatusInterview] +
		summary.ByStatus[database.StatusOffer] +
		summary.ByStatus[database.StatusRejected]
	reached := summary.TotalApplications - summary.ByStatus[database.StatusInterested]

	if reached > 0 {
		summary.ResponseRate = math.Round(float64(responded)/float64(reached)*1000) / 10
	}

	return summary, nil
}
