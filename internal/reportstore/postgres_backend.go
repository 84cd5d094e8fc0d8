package reportstore

import (
	"encoding/json"

	"opinionpulse/internal/analysis"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS analysis_reports (
  run_id TEXT PRIMARY KEY,
  topic TEXT NOT NULL DEFAULT '',
  post_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'complete',
  overall_sentiment DOUBLE PRECISION NOT NULL DEFAULT 50,
  payload JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analysis_reports_topic ON analysis_reports (topic, created_at DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) putDB(report StoredReport) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	payload, err := json.Marshal(report.Report)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO analysis_reports (run_id, topic, post_count, status, overall_sentiment, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (run_id)
DO UPDATE SET topic=EXCLUDED.topic,
  post_count=EXCLUDED.post_count,
  status=EXCLUDED.status,
  overall_sentiment=EXCLUDED.overall_sentiment,
  payload=EXCLUDED.payload`,
		report.RunID, report.Topic, report.PostCount,
		report.Report.Status, report.Report.OverallSentiment,
		payload, report.CreatedAt)
	return err
}

func (s *Store) getDB(runID string) (StoredReport, bool) {
	if err := s.ensureSchema(); err != nil {
		return StoredReport{}, false
	}
	row := s.db.QueryRow(`SELECT run_id, topic, post_count, payload, created_at
FROM analysis_reports WHERE run_id = $1`, runID)
	return scanReportDB(row)
}

func (s *Store) latestDB(topic string) (StoredReport, bool) {
	if err := s.ensureSchema(); err != nil {
		return StoredReport{}, false
	}
	row := s.db.QueryRow(`SELECT run_id, topic, post_count, payload, created_at
FROM analysis_reports WHERE topic = $1 ORDER BY created_at DESC LIMIT 1`, topic)
	return scanReportDB(row)
}

func (s *Store) historyDB(topic string, limit int) []StoredReport {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT run_id, topic, post_count, payload, created_at
FROM analysis_reports WHERE topic = $1 ORDER BY created_at DESC LIMIT $2`, topic, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make([]StoredReport, 0, limit)
	for rows.Next() {
		var (
			r       StoredReport
			payload []byte
		)
		if err := rows.Scan(&r.RunID, &r.Topic, &r.PostCount, &payload, &r.CreatedAt); err != nil {
			continue
		}
		var report analysis.AnalysisReport
		if err := json.Unmarshal(payload, &report); err != nil {
			continue
		}
		r.Report = report
		out = append(out, r)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReportDB(row rowScanner) (StoredReport, bool) {
	var (
		r       StoredReport
		payload []byte
	)
	if err := row.Scan(&r.RunID, &r.Topic, &r.PostCount, &payload, &r.CreatedAt); err != nil {
		return StoredReport{}, false
	}
	if err := json.Unmarshal(payload, &r.Report); err != nil {
		return StoredReport{}, false
	}
	return r, true
}
