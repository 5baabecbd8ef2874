// Package store persists intake sessions in a local sqlite database.
// Records and transcripts are kept as JSON documents, so the schema
// stays stable while the record shape evolves.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	_ "modernc.org/sqlite"

	"github.com/talentscout/intake/internal/conversation"
)

const connectTimeout = 2 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS audit (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	transcript TEXT NOT NULL,
	record     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_session ON audit(session_id);

CREATE TABLE IF NOT EXISTS candidates (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	document   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_candidates_session ON candidates(session_id);
`

// Store implements conversation.Store on top of sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema. The connection check uses a short timeout so an unreachable
// store fails fast instead of stalling the conversation.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// sqlite supports a single writer.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertAudit appends one audit document: the full transcript so far
// plus a snapshot of the record. Duplicate entries across turns are
// expected and acceptable.
func (s *Store) InsertAudit(ctx context.Context, sessionID string, transcript []conversation.Message, record *conversation.Record) error {
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	recordJSON, err := marshalDocument(record)
	if err != nil {
		return fmt.Errorf("marshal record snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit (id, session_id, created_at, transcript, record) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, time.Now().UTC(), string(transcriptJSON), string(recordJSON),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// InsertFinal writes the finished candidate document. Called once per
// session at completion.
func (s *Store) InsertFinal(ctx context.Context, sessionID string, record *conversation.Record) error {
	doc, err := marshalDocument(record)
	if err != nil {
		return fmt.Errorf("marshal candidate document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, session_id, created_at, document) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), sessionID, time.Now().UTC(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}

	return nil
}

// CandidateDocument returns the most recent candidate document stored
// for the session.
func (s *Store) CandidateDocument(ctx context.Context, sessionID string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM candidates WHERE session_id = ? ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("query candidate: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode candidate document: %w", err)
	}

	return doc, nil
}

// AuditCount returns the number of audit entries stored for the session.
func (s *Store) AuditCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit WHERE session_id = ?`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}

	return count, nil
}

// marshalDocument flattens the record into the persisted document
// shape and serializes it. The persistence status travels as a string
// so the stored document is self-describing.
func marshalDocument(record *conversation.Record) ([]byte, error) {
	doc := make(map[string]any)

	cfg := &mapstructure.DecoderConfig{
		Result:  &doc,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(record); err != nil {
		return nil, err
	}

	status := "unset"
	if record.Saved != nil {
		if *record.Saved {
			status = "success"
		} else {
			status = "failure"
		}
	}
	doc["persistence_status"] = status

	return json.Marshal(doc)
}
