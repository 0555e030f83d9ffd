package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"veridian-hq/lattice/pkg/compliance"
)

// SQLiteConfig configures the SQLite report store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns bounds open connections. Default: 10.
	MaxOpenConns int

	// MaxIdleConns bounds idle connections. Default: 5.
	MaxIdleConns int

	// WALMode enables write-ahead logging. Default: true.
	WALMode bool

	// BusyTimeout is how long to wait on a locked database. Default: 5s.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/reports.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore persists reports in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if necessary) the report database at
// config.Path and initializes its schema.
func NewSQLiteStore(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "compliance.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("report store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return newStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return newStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return newStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return newStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return newStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *compliance.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return newStorageError("sqlite", "marshal_report", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (
			run_id, document_id, document_type, overall_compliance,
			confidence_score, summary, created_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.DocumentID,
		report.DocumentType,
		string(report.OverallCompliance),
		report.ConfidenceScore,
		report.Summary,
		report.Timestamp.UTC(),
		string(payload),
	)
	if err != nil {
		return newStorageError("sqlite", "save_report", err)
	}

	s.logger.Debug("saved report",
		"run_id", report.RunID,
		"document", report.DocumentID,
		"overall", report.OverallCompliance,
	)
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, runID string) (*compliance.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ?`, runID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newStorageError("sqlite", "get_report", err)
	}
	return decodeReport(payload)
}

func (s *SQLiteStore) ListReports(ctx context.Context, opts ListOptions) ([]*compliance.Report, error) {
	query := `SELECT payload FROM reports`
	var args []any
	if opts.DocumentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, opts.DocumentID)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "list_reports", err)
	}
	defer rows.Close()

	var reports []*compliance.Report
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, newStorageError("sqlite", "scan_report", err)
		}
		report, err := decodeReport(payload)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "list_reports", err)
	}
	return reports, nil
}

func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE created_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, newStorageError("sqlite", "delete_before", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("sqlite", "rows_affected", err)
	}
	return deleted, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		return 0, newStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeReport(payload string) (*compliance.Report, error) {
	var report compliance.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, newStorageError("sqlite", "decode_report", err)
	}
	return &report, nil
}
