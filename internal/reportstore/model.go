package reportstore

import (
	"strings"
	"time"

	"opinionpulse/internal/analysis"
)

// StoredReport wraps an analysis report with the identity the store keys on.
type StoredReport struct {
	RunID     string                  `json:"run_id"`
	Topic     string                  `json:"topic"`
	PostCount int                     `json:"post_count"`
	Report    analysis.AnalysisReport `json:"report"`
	CreatedAt time.Time               `json:"created_at"`
}

func normalizeReport(r StoredReport) StoredReport {
	r.RunID = strings.TrimSpace(r.RunID)
	r.Topic = strings.TrimSpace(r.Topic)
	if r.PostCount < 0 {
		r.PostCount = 0
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}
