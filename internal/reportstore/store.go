package reportstore

import (
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store persists analysis reports keyed by run ID, indexed by topic. It
// backs onto Postgres when a DSN is available and falls back to a local
// JSON file otherwise, so the CLI works without any infrastructure.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byRunID  map[string]StoredReport

	schemaOnce sync.Once
	schemaErr  error

	latest *lru.Cache[string, StoredReport]
}

func New(path string) *Store {
	return &Store{
		path:    path,
		byRunID: make(map[string]StoredReport),
		latest:  newLatestCache(0),
	}
}

func NewPostgres(dsn string, cacheSize int) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, latest: newLatestCache(cacheSize)}, nil
}

// NewFromConfig prefers Postgres, degrading to the file backend when the
// DSN is empty or unreachable.
func NewFromConfig(dsn, path string, cacheSize int) *Store {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn, cacheSize)
	if err != nil {
		return New(path)
	}
	return s
}

func newLatestCache(size int) *lru.Cache[string, StoredReport] {
	if size <= 0 {
		size = 64
	}
	c, _ := lru.New[string, StoredReport](size)
	return c
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores the report and refreshes the per-topic latest cache.
func (s *Store) Put(report StoredReport) error {
	if s == nil {
		return nil
	}
	report = normalizeReport(report)
	if report.RunID == "" {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.putDB(report)
	} else {
		err = s.putFile(report)
	}
	if err == nil && report.Topic != "" {
		s.latest.Add(report.Topic, report)
	}
	return err
}

// Get returns the report for a single run.
func (s *Store) Get(runID string) (StoredReport, bool) {
	if s == nil {
		return StoredReport{}, false
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return StoredReport{}, false
	}
	if s.db != nil {
		return s.getDB(runID)
	}
	return s.getFile(runID)
}

// Latest returns the most recent report for a topic, served from the lru
// cache when possible.
func (s *Store) Latest(topic string) (StoredReport, bool) {
	if s == nil {
		return StoredReport{}, false
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return StoredReport{}, false
	}
	if cached, ok := s.latest.Get(topic); ok {
		return cached, true
	}
	var (
		report StoredReport
		ok     bool
	)
	if s.db != nil {
		report, ok = s.latestDB(topic)
	} else {
		report, ok = s.latestFile(topic)
	}
	if ok {
		s.latest.Add(topic, report)
	}
	return report, ok
}

// History returns up to limit reports for a topic, newest first.
func (s *Store) History(topic string, limit int) []StoredReport {
	if s == nil {
		return nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}
	if s.db != nil {
		return s.historyDB(topic, limit)
	}
	return s.historyFile(topic, limit)
}
