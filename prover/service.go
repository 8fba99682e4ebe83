package prover

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Service is the HTTP service for the prover.
type Service struct {
	prover  *Prover
	started time.Time
}

// NewService creates a new prover service.
// The prover should already have patterns registered by the caller.
func NewService(prover *Prover) *Service {
	return &Service{
		prover:  prover,
		started: time.Now(),
	}
}

// ListPatterns returns the list of registered pattern names.
func (s *Service) ListPatterns() []string {
	return s.prover.ListPatterns()
}

// Prover returns the underlying prover for use by other services.
func (s *Service) Prover() *Prover {
	return s.prover
}

// Handler returns the HTTP handler for the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /patterns", s.handleListPatterns)
	mux.HandleFunc("GET /patterns/{name}", s.handlePatternInfo)
	mux.HandleFunc("POST /prove/{pattern}", s.handleProve)
	mux.HandleFunc("GET /verifier/{pattern}", s.handleExportVerifier)

	return mux
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status   string   `json:"status"`
	Uptime   string   `json:"uptime"`
	Patterns []string `json:"patterns"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.started).String(),
		Patterns: s.prover.ListPatterns(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// PatternInfo provides metadata about a registered pattern.
type PatternInfo struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Digest      string `json:"digest"`
	Rows        int    `json:"rows"`
	Sections    int    `json:"sections"`
	Constraints int    `json:"constraints"`
	PublicVars  int    `json:"public_vars"`
	PrivateVars int    `json:"private_vars"`
}

func patternInfo(cc *CompiledPattern) PatternInfo {
	info := PatternInfo{
		Name:        cc.Name,
		Constraints: cc.Constraints,
		PublicVars:  cc.PublicVars,
		PrivateVars: cc.PrivateVars,
	}
	if cc.Shape != nil {
		info.Pattern = cc.Shape.Pattern
		info.Digest = fmt.Sprintf("0x%x", cc.Shape.Digest)
		info.Rows = cc.Shape.Layout.Rows
		info.Sections = len(cc.Shape.Sections)
	}
	return info
}

// GetPatternInfo returns metadata for all registered patterns.
func GetPatternInfo(p *Prover) []PatternInfo {
	names := p.ListPatterns()
	infos := make([]PatternInfo, 0, len(names))
	for _, name := range names {
		cc, ok := p.GetPattern(name)
		if !ok {
			continue
		}
		infos = append(infos, patternInfo(cc))
	}
	return infos
}

// PatternListResponse lists all available patterns.
type PatternListResponse struct {
	Patterns []PatternInfo `json:"patterns"`
}

func (s *Service) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	resp := PatternListResponse{
		Patterns: GetPatternInfo(s.prover),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Service) handlePatternInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	cc, ok := s.prover.GetPattern(name)
	if !ok {
		http.Error(w, fmt.Sprintf("pattern %q not found", name), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patternInfo(cc))
}

// ProveRequest is the request body for proof generation. The input is
// witness material; it is never echoed back or logged.
type ProveRequest struct {
	Input string `json:"input"`
}

// ProveResponse is the response from proof generation.
type ProveResponse struct {
	Proof       *ProofResult `json:"proof,omitempty"`
	Error       string       `json:"error,omitempty"`
	ProofTimeMs int64        `json:"proof_time_ms"`
	Pattern     string       `json:"pattern"`
	Constraints int          `json:"constraints"`
}

func (s *Service) handleProve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("pattern")

	cc, ok := s.prover.GetPattern(name)
	if !ok {
		http.Error(w, fmt.Sprintf("pattern %q not found", name), http.StatusNotFound)
		return
	}

	var req ProveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	proof, err := s.prover.Prove(name, req.Input)
	elapsed := time.Since(start)

	resp := ProveResponse{
		Pattern:     name,
		Constraints: cc.Constraints,
		ProofTimeMs: elapsed.Milliseconds(),
	}

	if err != nil {
		var ae *AssignmentError
		status := http.StatusInternalServerError
		if errors.As(err, &ae) {
			status = http.StatusUnprocessableEntity
		}
		// The error chain carries no input characters, only positions.
		slog.Warn("Proof request failed", "pattern", name, "err", err)

		resp.Error = err.Error()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
		return
	}

	resp.Proof = proof

	slog.Info("Proof generated",
		"pattern", name,
		"constraints", cc.Constraints,
		"elapsed", elapsed,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Service) handleExportVerifier(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("pattern")

	solidity, err := s.prover.ExportVerifier(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(solidity))
}
