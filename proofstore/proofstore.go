// Package proofstore provides SQLite-backed persistence for generated
// match proofs. Stored records carry the public side of a proof only:
// the pattern, its digest, and the proof points. Matched inputs are
// witness material and never reach the store.
package proofstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"

	"github.com/zkmatch-xyz/go-zkmatch/prover"
)

// Store handles SQLite database operations for proof records.
type Store struct {
	db *sql.DB
}

// ProofRecord is a stored match proof.
type ProofRecord struct {
	ID          string          `json:"id"`
	Pattern     string          `json:"pattern"`      // registered pattern name
	Expr        string          `json:"expr"`         // pattern expression
	Digest      string          `json:"digest"`       // 0x-prefixed pattern digest
	Proof       json.RawMessage `json:"proof"`        // serialized ProofResult
	Constraints int             `json:"constraints"`
	ProofTimeMs int64           `json:"proof_time_ms"`
	CreatedAt   time.Time       `json:"created_at"`
}

// New creates a new Store with the given database path.
// Use ":memory:" for an ephemeral store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS proofs (
		id TEXT PRIMARY KEY,
		pattern TEXT NOT NULL,
		expr TEXT NOT NULL,
		digest TEXT NOT NULL,
		proof TEXT NOT NULL,
		constraints INTEGER NOT NULL DEFAULT 0,
		proof_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_proofs_pattern ON proofs(pattern);
	CREATE INDEX IF NOT EXISTS idx_proofs_digest ON proofs(digest);
	CREATE INDEX IF NOT EXISTS idx_proofs_created ON proofs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// DigestHex renders a pattern digest in the canonical 0x form used as the
// store key and in API responses.
func DigestHex(digest *big.Int) (string, error) {
	u, overflow := uint256.FromBig(digest)
	if overflow {
		return "", fmt.Errorf("digest exceeds 256 bits")
	}
	return u.Hex(), nil
}

// ParseDigest parses a canonical 0x digest back into a big integer.
func ParseDigest(hex string) (*big.Int, error) {
	u, err := uint256.FromHex(hex)
	if err != nil {
		return nil, fmt.Errorf("parse digest: %w", err)
	}
	return u.ToBig(), nil
}

// SaveProof stores a proof result and returns the new record.
// The record id is a fresh UUID.
func (s *Store) SaveProof(ctx context.Context, result *prover.ProofResult, expr string, digest *big.Int, proofTimeMs int64) (*ProofRecord, error) {
	digestHex, err := DigestHex(digest)
	if err != nil {
		return nil, err
	}

	proofJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}

	rec := &ProofRecord{
		ID:          uuid.New().String(),
		Pattern:     result.Pattern,
		Expr:        expr,
		Digest:      digestHex,
		Proof:       proofJSON,
		Constraints: result.Constraints,
		ProofTimeMs: proofTimeMs,
		CreatedAt:   time.Now().UTC(),
	}

	// Timestamps are stored as unix milliseconds so aggregates like
	// MAX(created_at) stay typed.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO proofs (id, pattern, expr, digest, proof, constraints, proof_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Pattern, rec.Expr, rec.Digest, string(rec.Proof),
		rec.Constraints, rec.ProofTimeMs, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert proof: %w", err)
	}
	return rec, nil
}

// GetProof retrieves a proof record by id.
func (s *Store) GetProof(ctx context.Context, id string) (*ProofRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pattern, expr, digest, proof, constraints, proof_time_ms, created_at
		 FROM proofs WHERE id = ?`, id,
	)
	return scanProof(row)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProof(row rowScanner) (*ProofRecord, error) {
	var rec ProofRecord
	var proofText string
	var createdAt int64
	err := row.Scan(&rec.ID, &rec.Pattern, &rec.Expr, &rec.Digest, &proofText,
		&rec.Constraints, &rec.ProofTimeMs, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Proof = json.RawMessage(proofText)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}

// ProofsByPattern retrieves proof records for a pattern, newest first.
func (s *Store) ProofsByPattern(ctx context.Context, pattern string, limit int) ([]*ProofRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, expr, digest, proof, constraints, proof_time_ms, created_at
		 FROM proofs WHERE pattern = ? ORDER BY created_at DESC, id LIMIT ?`, pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProofs(rows)
}

// ProofsByDigest retrieves proof records sharing a pattern digest, newest
// first. Renamed patterns with an identical shape land in the same bucket.
func (s *Store) ProofsByDigest(ctx context.Context, digest *big.Int, limit int) ([]*ProofRecord, error) {
	digestHex, err := DigestHex(digest)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, expr, digest, proof, constraints, proof_time_ms, created_at
		 FROM proofs WHERE digest = ? ORDER BY created_at DESC, id LIMIT ?`, digestHex, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProofs(rows)
}

// RecentProofs returns the most recent proof records across all patterns.
func (s *Store) RecentProofs(ctx context.Context, limit int) ([]*ProofRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, expr, digest, proof, constraints, proof_time_ms, created_at
		 FROM proofs ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProofs(rows)
}

func collectProofs(rows *sql.Rows) ([]*ProofRecord, error) {
	var records []*ProofRecord
	for rows.Next() {
		rec, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PatternSummary provides aggregated proving stats for a pattern.
type PatternSummary struct {
	Pattern   string    `json:"pattern"`
	Digest    string    `json:"digest"`
	Proofs    int       `json:"proofs"`
	AvgTimeMs float64   `json:"avg_time_ms"`
	LastProof time.Time `json:"last_proof"`
}

// PatternSummaries returns aggregated stats per pattern.
func (s *Store) PatternSummaries(ctx context.Context) ([]*PatternSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern, digest, COUNT(*), AVG(proof_time_ms), MAX(created_at)
		 FROM proofs GROUP BY pattern, digest ORDER BY pattern`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*PatternSummary
	for rows.Next() {
		var ps PatternSummary
		var last int64
		if err := rows.Scan(&ps.Pattern, &ps.Digest, &ps.Proofs, &ps.AvgTimeMs, &last); err != nil {
			return nil, err
		}
		ps.LastProof = time.UnixMilli(last).UTC()
		summaries = append(summaries, &ps)
	}
	return summaries, rows.Err()
}

// DeleteProofsByPattern removes all records for a pattern and reports how
// many were deleted.
func (s *Store) DeleteProofsByPattern(ctx context.Context, pattern string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proofs WHERE pattern = ?`, pattern)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExportPatternJSON exports a pattern's records and summary as JSON.
func (s *Store) ExportPatternJSON(ctx context.Context, pattern string) ([]byte, error) {
	records, err := s.ProofsByPattern(ctx, pattern, 1000)
	if err != nil {
		return nil, err
	}

	summaries, err := s.PatternSummaries(ctx)
	if err != nil {
		return nil, err
	}
	var summary *PatternSummary
	for _, ps := range summaries {
		if ps.Pattern == pattern {
			summary = ps
			break
		}
	}

	export := map[string]any{
		"pattern": pattern,
		"summary": summary,
		"proofs":  records,
	}

	return json.MarshalIndent(export, "", "  ")
}
