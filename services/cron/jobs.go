package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/campusmind/console-api/model"
)

// PurgeExpiredTokens deletes blacklist rows whose tokens have expired on
// their own; they no longer need an explicit deny entry.
func (m *CronManager) PurgeExpiredTokens() {
	jobName := "purge_expired_tokens"

	result := m.db.Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge expired tokens: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired token entries", result.RowsAffected))
}

// ScanPendingDocuments reports materials that have sat without a blob for
// over an hour, usually an upload that died between the record and the file.
func (m *CronManager) ScanPendingDocuments() {
	jobName := "scan_pending_documents"
	cutoff := time.Now().Add(-1 * time.Hour)

	var documents []model.Document
	err := m.db.Where("blob_key = '' AND source_type = ? AND created_at < ?",
		model.SourceTypePDF, cutoff).
		Find(&documents).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query pending documents: %w", err))
		return
	}

	if len(documents) == 0 {
		m.logJobComplete(jobName, "No stale pending documents")
		return
	}

	for _, doc := range documents {
		log.Printf("[CRON] Document %d (%q) pending since %s", doc.ID, doc.Title, doc.CreatedAt.Format(time.RFC3339))
	}
	m.logJobComplete(jobName, fmt.Sprintf("Found %d stale pending documents", len(documents)))
}

// CleanupCronLogs trims job log rows older than 30 days
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Where("started_at < ? AND status <> ?", cutoff, "running").
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old log entries", result.RowsAffected))
}
