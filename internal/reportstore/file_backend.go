package reportstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []StoredReport
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.RunID)
			if id == "" {
				continue
			}
			s.byRunID[id] = normalizeReport(row)
		}
	})
}

func (s *Store) saveFile() error {
	s.mu.RLock()
	rows := make([]StoredReport, 0, len(s.byRunID))
	for _, r := range s.byRunID {
		rows = append(rows, r)
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

func (s *Store) putFile(report StoredReport) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.byRunID[report.RunID] = report
	s.mu.Unlock()
	return s.saveFile()
}

func (s *Store) getFile(runID string) (StoredReport, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	report, ok := s.byRunID[runID]
	s.mu.RUnlock()
	return report, ok
}

func (s *Store) latestFile(topic string) (StoredReport, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  StoredReport
		found bool
	)
	for _, r := range s.byRunID {
		if r.Topic != topic {
			continue
		}
		if !found || r.CreatedAt.After(best.CreatedAt) {
			best = r
			found = true
		}
	}
	return best, found
}

func (s *Store) historyFile(topic string, limit int) []StoredReport {
	s.ensureLoadedFile()
	s.mu.RLock()
	out := make([]StoredReport, 0, limit)
	for _, r := range s.byRunID {
		if r.Topic == topic {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
