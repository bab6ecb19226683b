package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per completed count run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    vocabulary TEXT,
    documents_dir TEXT,
    report_path TEXT,
    mean_strategy TEXT NOT NULL,
    term_count INTEGER NOT NULL DEFAULT 0,
    document_count INTEGER NOT NULL DEFAULT 0,
    success_count INTEGER NOT NULL DEFAULT 0,
    failed_count INTEGER NOT NULL DEFAULT 0,
    total_tokens INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Run documents: per-document outcome, in report column order
CREATE TABLE IF NOT EXISTS run_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    path TEXT,
    status TEXT NOT NULL,       -- success, error
    error_type TEXT,            -- unsupported, too_large, extract_error, timeout
    error_message TEXT,
    tokens INTEGER NOT NULL DEFAULT 0,
    language TEXT,

    -- Top keywords as JSON array: ["word:count", ...]
    top_keywords TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_run_documents_run ON run_documents(run_id);
CREATE INDEX IF NOT EXISTS idx_run_documents_status ON run_documents(status);
`
