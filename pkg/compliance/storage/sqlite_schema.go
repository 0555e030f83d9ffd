package storage

// SchemaVersion is the current report store schema version.
const SchemaVersion = 1

// Schema creates the report tables and indices. Queryable report attributes
// live in columns; the full report is stored as a JSON payload so no detail
// is lost between save and load.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
	run_id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	document_type TEXT,
	overall_compliance TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	summary TEXT,
	created_at TIMESTAMP NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_document_id ON reports(document_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_overall ON reports(overall_compliance);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version`
