package cron

import (
	"fmt"
	"time"

	"github.com/opencampus/campus-api/model"
)

// StaleRequestAge is how long a PENDING access request may wait before it is
// reported to operators.
const StaleRequestAge = 7 * 24 * time.Hour

// CleanupExpiredBlacklist removes blacklist rows whose tokens have expired
// anyway; they can no longer pass validation and only grow the table.
func (m *CronManager) CleanupExpiredBlacklist() {
	jobName := "cleanup_expired_blacklist"

	res := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete expired tokens: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired blacklist entries", res.RowsAffected))
}

// ReportStaleAccessRequests counts PENDING requests older than StaleRequestAge
// per institution so operators notice stuck reviews. Requests are never
// auto-rejected; review stays a human decision.
func (m *CronManager) ReportStaleAccessRequests() {
	jobName := "report_stale_access_requests"

	cutoff := time.Now().Add(-StaleRequestAge)

	type staleCount struct {
		InstitutionID uint
		Count         int64
	}
	var counts []staleCount
	err := m.db.Model(&model.AccessRequest{}).
		Select("institution_id, COUNT(*) as count").
		Where("status = ? AND requested_at < ?", model.ApprovalPending, cutoff).
		Group("institution_id").
		Find(&counts).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count stale requests: %w", err))
		return
	}

	if len(counts) == 0 {
		m.logJobComplete(jobName, "No stale access requests")
		return
	}

	total := int64(0)
	for _, c := range counts {
		total += c.Count
	}
	m.logJobComplete(jobName, fmt.Sprintf("%d stale access requests across %d institutions", total, len(counts)))
}
