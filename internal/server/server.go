// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a loopback HTTP API over the marking engine.
//
// Endpoints:
//   - POST /v1/markings/render    - Render a portion and banner marking
//   - POST /v1/markings/aggregate - Roll portion markings up to a banner
//   - GET  /v1/catalog/countries  - List catalog countries
//   - GET  /v1/catalog/groups     - List releasability groups
//   - GET  /health                - Health check
//   - GET  /stats                 - Usage statistics
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/markforge/internal/audit"
	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/marking"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultHost is the loopback address the server binds by default.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8247

	// DefaultRequestTimeout bounds read and write time per request.
	DefaultRequestTimeout = 10 * time.Second

	// MaxRequestBodySize is the maximum size for request body to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMarkingCount is the maximum number of markings in an aggregate request.
	MaxMarkingCount = 500

	// MaxMarkingLength is the maximum length of a single marking line.
	MaxMarkingLength = 256

	// MaxEntryCount is the maximum number of entries in any render request list.
	MaxEntryCount = 64

	// MaxFieldLength is the maximum length of a free-text field.
	MaxFieldLength = 256

	// Version is the server version.
	Version = "0.4.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks server usage statistics. Counters count completed
// operations; errors are tallied separately by the error writer.
type ServerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	RenderRequests     int64     `json:"render_requests"`
	AggregateRequests  int64     `json:"aggregate_requests"`
	CatalogRequests    int64     `json:"catalog_requests"`
	PortionsAggregated int64     `json:"portions_aggregated"`
	ErrorCount         int64     `json:"error_count"`
	StartTime          time.Time `json:"start_time"`
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{
		StartTime: time.Now(),
	}
}

// RecordRender records a completed render operation.
func (s *ServerStats) RecordRender() {
	atomic.AddInt64(&s.TotalRequests, 1)
	atomic.AddInt64(&s.RenderRequests, 1)
}

// RecordAggregate records a completed aggregate operation over the given
// number of portions.
func (s *ServerStats) RecordAggregate(portions int) {
	atomic.AddInt64(&s.TotalRequests, 1)
	atomic.AddInt64(&s.AggregateRequests, 1)
	atomic.AddInt64(&s.PortionsAggregated, int64(portions))
}

// RecordCatalog records a completed catalog listing.
func (s *ServerStats) RecordCatalog() {
	atomic.AddInt64(&s.TotalRequests, 1)
	atomic.AddInt64(&s.CatalogRequests, 1)
}

// RecordError records an error response.
func (s *ServerStats) RecordError() {
	atomic.AddInt64(&s.ErrorCount, 1)
}

// GetStats returns a copy of the current stats.
func (s *ServerStats) GetStats() ServerStats {
	return ServerStats{
		TotalRequests:      atomic.LoadInt64(&s.TotalRequests),
		RenderRequests:     atomic.LoadInt64(&s.RenderRequests),
		AggregateRequests:  atomic.LoadInt64(&s.AggregateRequests),
		CatalogRequests:    atomic.LoadInt64(&s.CatalogRequests),
		PortionsAggregated: atomic.LoadInt64(&s.PortionsAggregated),
		ErrorCount:         atomic.LoadInt64(&s.ErrorCount),
		StartTime:          s.StartTime,
	}
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the loopback HTTP API over the marking engine.
type Server struct {
	host   string
	port   int
	router *http.ServeMux
	server *http.Server

	cat        *catalog.Catalog
	assembler  *marking.Assembler
	aggregator *marking.Aggregator
	auditLog   *audit.Logger
	limiter    *ClientLimiter
	timeout    time.Duration
	stats      *ServerStats

	mu sync.RWMutex
}

// NewServer creates a new Server with the specified port.
// If port is 0, the default port (8247) is used.
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		host:     DefaultHost,
		port:     port,
		router:   http.NewServeMux(),
		auditLog: audit.Disabled(),
		limiter:  DefaultClientLimiter(),
		timeout:  DefaultRequestTimeout,
		stats:    NewServerStats(),
	}

	s.setCatalog(catalog.Default())
	s.setupRoutes()
	return s
}

// setCatalog installs the catalog and rebuilds the engine wiring that
// depends on it. Callers hold s.mu.
func (s *Server) setCatalog(c *catalog.Catalog) {
	s.cat = c
	s.assembler = marking.NewAssembler(c.TrigraphIndex(), c.Groups)
	s.aggregator = marking.NewAggregator(c.Groups)
}

// WithCatalog sets the country and group catalog. Safe to call while
// serving; the catalog watcher uses it as its reload hook.
func (s *Server) WithCatalog(c *catalog.Catalog) *Server {
	if c == nil {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCatalog(c)
	return s
}

// WithAudit sets the audit logger for marking decisions.
func (s *Server) WithAudit(l *audit.Logger) *Server {
	if l == nil {
		l = audit.Disabled()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = l
	return s
}

// WithRateLimit sets the per-client rate limit. Zero rps disables limiting.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = NewClientLimiter(rps, burst)
	return s
}

// WithHost sets the bind address. Start refuses non-loopback hosts.
func (s *Server) WithHost(host string) *Server {
	if host == "" {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = host
	return s
}

// WithTimeout sets the per-request read and write timeout.
func (s *Server) WithTimeout(d time.Duration) *Server {
	if d <= 0 {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the host:port the server binds.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Marking engine endpoints
	s.router.HandleFunc("POST /v1/markings/render", s.handleRender)
	s.router.HandleFunc("POST /v1/markings/aggregate", s.handleAggregate)

	// Catalog endpoints
	s.router.HandleFunc("GET /v1/catalog/countries", s.handleCountries)
	s.router.HandleFunc("GET /v1/catalog/groups", s.handleGroups)

	// Health and stats endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// REQUEST AND RESPONSE TYPES
// ============================================================================

// RenderRequest describes one marking to compose. Level, caveat, and
// control tokens accept banner or portion spellings ("TOP SECRET" or
// "TS", "NOFORN" or "NF"). Supplying rel_to recipients implies the REL TO
// control.
type RenderRequest struct {
	Level        string   `json:"level"`
	Caveats      []string `json:"caveats,omitempty"`
	Controls     []string `json:"controls,omitempty"`
	FGI          []string `json:"fgi,omitempty"`
	RelTo        []string `json:"rel_to,omitempty"`
	Exercise     bool     `json:"exercise,omitempty"`
	DerivedFrom  string   `json:"derived_from,omitempty"`
	DeclassifyOn string   `json:"declassify_on,omitempty"`
}

// AggregateRequest carries the marking lines to roll up. Lines may be
// banner form or parenthesized portion form.
type AggregateRequest struct {
	Markings []string `json:"markings"`
}

// AggregateResponse is the computed document banner.
type AggregateResponse struct {
	Banner   string `json:"banner"`
	Markings int    `json:"markings"`
}

// CountryInfo is one catalog country entry.
type CountryInfo struct {
	Name     string `json:"name"`
	Trigraph string `json:"trigraph"`
}

// CountriesResponse lists the catalog countries.
type CountriesResponse struct {
	Countries []CountryInfo `json:"countries"`
	Count     int           `json:"count"`
}

// GroupsResponse lists the releasability group expansions.
type GroupsResponse struct {
	Groups    map[string][]string `json:"groups"`
	Shortcuts []string            `json:"shortcuts,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	CatalogCountries int    `json:"catalog_countries"`
	CatalogGroups    int    `json:"catalog_groups"`
	AuditEnabled     bool   `json:"audit_enabled"`
}

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	TotalRequests      int64 `json:"total_requests"`
	RenderRequests     int64 `json:"render_requests"`
	AggregateRequests  int64 `json:"aggregate_requests"`
	CatalogRequests    int64 `json:"catalog_requests"`
	PortionsAggregated int64 `json:"portions_aggregated"`
	ErrorCount         int64 `json:"error_count"`
	UptimeSeconds      int64 `json:"uptime_seconds"`
}

// ============================================================================
// RENDER HANDLER
// ============================================================================

// handleRender handles POST /v1/markings/render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		log.Printf("Invalid request body: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if msg := renderLimitViolation(req); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	sel, err := BuildSelection(req)
	if err != nil {
		s.writeMarkingError(w, err)
		return
	}

	s.mu.RLock()
	asm := s.assembler
	auditLog := s.auditLog
	s.mu.RUnlock()

	m, err := asm.Render(sel)
	if err != nil {
		s.writeMarkingError(w, err)
		return
	}

	// AU-5: a marking decision that cannot be recorded is not served
	if err := auditLog.LogRender(m.BannerMarking); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | action=%s error=%v", audit.ActionRender, err)
		s.writeError(w, http.StatusInternalServerError, "Audit trail unavailable")
		return
	}

	s.stats.RecordRender()
	s.writeJSON(w, http.StatusOK, m)
}

// renderLimitViolation checks the request against the entry-count and
// field-length caps. Returns an empty string when the request is within
// limits.
func renderLimitViolation(req RenderRequest) string {
	switch {
	case len(req.Caveats) > MaxEntryCount:
		return fmt.Sprintf("Too many caveats: maximum is %d", MaxEntryCount)
	case len(req.Controls) > MaxEntryCount:
		return fmt.Sprintf("Too many controls: maximum is %d", MaxEntryCount)
	case len(req.FGI) > MaxEntryCount:
		return fmt.Sprintf("Too many FGI entries: maximum is %d", MaxEntryCount)
	case len(req.RelTo) > MaxEntryCount:
		return fmt.Sprintf("Too many REL TO recipients: maximum is %d", MaxEntryCount)
	case len(req.DerivedFrom) > MaxFieldLength:
		return fmt.Sprintf("derived_from exceeds maximum length of %d", MaxFieldLength)
	case len(req.DeclassifyOn) > MaxFieldLength:
		return fmt.Sprintf("declassify_on exceeds maximum length of %d", MaxFieldLength)
	}
	return ""
}

// BuildSelection drives the constraint engine through the requested
// tokens. Combinations the engine forbids surface as InvariantErrors from
// the toggle that broke them; unknown tokens fail before any toggle. The
// CLI render path builds its selections through the same function.
func BuildSelection(req RenderRequest) (marking.Selection, error) {
	sel := marking.NewSelection()

	toggle := func(f marking.Field) error {
		next, err := marking.Next(sel, marking.Toggle{Field: f, On: true})
		if err != nil {
			return err
		}
		sel = next
		return nil
	}

	// Exercise first: while it is on the engine refuses every other
	// field, which is exactly the contract for exercise markings.
	if req.Exercise {
		if err := toggle(marking.FieldExercise); err != nil {
			return sel, err
		}
	}

	if req.Level != "" {
		lv, ok := marking.ParseLevel(req.Level)
		if !ok {
			return sel, fmt.Errorf("unknown classification level %q", req.Level)
		}
		if err := toggle(lv.Field()); err != nil {
			return sel, err
		}
	}

	for _, tok := range req.Caveats {
		c, ok := marking.ParseCaveat(tok)
		if !ok {
			return sel, fmt.Errorf("unknown SCI caveat %q", tok)
		}
		if err := toggle(c.Field()); err != nil {
			return sel, err
		}
	}

	for _, tok := range req.Controls {
		// ParseControl excludes REL TO because the banner token carries
		// recipients; accept the bare token here.
		if strings.EqualFold(strings.TrimSpace(tok), "REL TO") {
			if err := toggle(marking.FieldRELTO); err != nil {
				return sel, err
			}
			continue
		}
		c, ok := marking.ParseControl(tok)
		if !ok {
			return sel, fmt.Errorf("unknown dissemination control %q", tok)
		}
		if err := toggle(c.Field()); err != nil {
			return sel, err
		}
	}

	if len(req.RelTo) > 0 {
		if !sel.HasControl(marking.ControlRELTO) {
			if err := toggle(marking.FieldRELTO); err != nil {
				return sel, err
			}
		}
		sel.SetRecipients(strings.Join(req.RelTo, ", "))
	}

	if len(req.FGI) > 0 && !marking.Available(sel, marking.FieldFGI) {
		return sel, &marking.InvariantError{Field: marking.FieldFGI, Message: "field is not available in the current selection"}
	}
	for _, name := range req.FGI {
		if err := sel.AddFGI(name); err != nil {
			return sel, err
		}
	}

	sel.SetDerivedFrom(req.DerivedFrom)
	sel.SetDeclassifyOn(req.DeclassifyOn)

	return sel, nil
}

// ============================================================================
// AGGREGATE HANDLER
// ============================================================================

// handleAggregate handles POST /v1/markings/aggregate.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		log.Printf("Invalid request body: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.Markings) == 0 {
		s.writeError(w, http.StatusBadRequest, "Request must contain at least one marking")
		return
	}
	if len(req.Markings) > MaxMarkingCount {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many markings: maximum is %d", MaxMarkingCount))
		return
	}
	for i, m := range req.Markings {
		if len(m) > MaxMarkingLength {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Marking %d exceeds maximum length of %d", i, MaxMarkingLength))
			return
		}
	}

	s.mu.RLock()
	agg := s.aggregator
	auditLog := s.auditLog
	s.mu.RUnlock()

	banner, err := agg.AggregateBanners(req.Markings)
	if err != nil {
		s.writeMarkingError(w, err)
		return
	}

	// AU-5: a marking decision that cannot be recorded is not served
	if err := auditLog.LogAggregate(banner, len(req.Markings)); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | action=%s error=%v", audit.ActionAggregate, err)
		s.writeError(w, http.StatusInternalServerError, "Audit trail unavailable")
		return
	}

	s.stats.RecordAggregate(len(req.Markings))
	s.writeJSON(w, http.StatusOK, AggregateResponse{
		Banner:   banner,
		Markings: len(req.Markings),
	})
}

// ============================================================================
// CATALOG HANDLERS
// ============================================================================

// handleCountries handles GET /v1/catalog/countries.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cat := s.cat
	s.mu.RUnlock()

	countries := make([]CountryInfo, len(cat.Countries))
	for i, c := range cat.Countries {
		countries[i] = CountryInfo{Name: c.Name, Trigraph: c.Trigraph}
	}

	s.stats.RecordCatalog()
	s.writeJSON(w, http.StatusOK, CountriesResponse{
		Countries: countries,
		Count:     len(countries),
	})
}

// handleGroups handles GET /v1/catalog/groups.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cat := s.cat
	s.mu.RUnlock()

	groups := make(map[string][]string, len(cat.Groups))
	for name, members := range cat.Groups {
		groups[name] = append([]string(nil), members...)
	}

	s.stats.RecordCatalog()
	s.writeJSON(w, http.StatusOK, GroupsResponse{
		Groups:    groups,
		Shortcuts: append([]string(nil), cat.Shortcuts...),
	})
}

// ============================================================================
// HEALTH AND STATS HANDLERS
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cat := s.cat
	auditLog := s.auditLog
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		Version:          Version,
		CatalogCountries: len(cat.Countries),
		CatalogGroups:    len(cat.Groups),
		AuditEnabled:     auditLog.IsEnabled(),
	})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.GetStats()

	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalRequests:      stats.TotalRequests,
		RenderRequests:     stats.RenderRequests,
		AggregateRequests:  stats.AggregateRequests,
		CatalogRequests:    stats.CatalogRequests,
		PortionsAggregated: stats.PortionsAggregated,
		ErrorCount:         stats.ErrorCount,
		UptimeSeconds:      int64(s.stats.Uptime().Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Handler returns the server's full middleware and routing stack.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()

	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(limiter),
	)(s.router)
}

// Start starts the HTTP server. The bind address must be loopback; the
// marking service is never exposed off-host (NIST SC-7).
func (s *Server) Start() error {
	if !loopbackHost(s.host) {
		return fmt.Errorf("refusing to bind non-loopback address %q", s.host)
	}

	addr := s.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
		IdleTimeout:  120 * time.Second,
	}

	// AU-5: do not serve marking decisions without a working trail
	if err := s.auditLog.LogServerStart(addr); err != nil {
		return fmt.Errorf("audit trail unavailable: %w", err)
	}

	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	if err := s.auditLog.LogServerStop(s.Addr()); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | action=%s error=%v", audit.ActionServerStop, err)
	}

	return s.server.Shutdown(ctx)
}

// loopbackHost reports whether the host resolves to a loopback address
// without consulting a resolver.
func loopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response and tallies it.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.stats.RecordError()
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errorType(status),
			"code":    status,
		},
	})
}

// writeMarkingError maps engine errors onto HTTP statuses. Rule
// violations and incomplete selections are client-correctable and carry
// the engine's message; unknown tokens are plain bad requests.
func (s *Server) writeMarkingError(w http.ResponseWriter, err error) {
	if marking.IsValidationError(err) || marking.IsInvariantError(err) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeError(w, http.StatusBadRequest, err.Error())
}

// errorType names the error class for the response body.
func errorType(status int) string {
	switch {
	case status == http.StatusUnprocessableEntity:
		return "marking_rule_error"
	case status >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "invalid_request_error"
	}
}
