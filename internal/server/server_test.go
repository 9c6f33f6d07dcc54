// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/markforge/internal/audit"
	"github.com/jeranaias/markforge/internal/marking"
)

// =============================================================================
// SERVER STATS TESTS
// =============================================================================

func TestNewServerStats(t *testing.T) {
	stats := NewServerStats()

	if stats == nil {
		t.Fatal("NewServerStats() returned nil")
	}

	if stats.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", stats.TotalRequests)
	}

	if stats.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestServerStats_Record(t *testing.T) {
	stats := NewServerStats()

	stats.RecordRender()
	stats.RecordAggregate(3)
	stats.RecordCatalog()
	stats.RecordError()

	got := stats.GetStats()

	if got.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", got.TotalRequests)
	}
	if got.RenderRequests != 1 {
		t.Errorf("RenderRequests = %d, want 1", got.RenderRequests)
	}
	if got.AggregateRequests != 1 {
		t.Errorf("AggregateRequests = %d, want 1", got.AggregateRequests)
	}
	if got.PortionsAggregated != 3 {
		t.Errorf("PortionsAggregated = %d, want 3", got.PortionsAggregated)
	}
	if got.CatalogRequests != 1 {
		t.Errorf("CatalogRequests = %d, want 1", got.CatalogRequests)
	}
	if got.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", got.ErrorCount)
	}
}

// =============================================================================
// SERVER TESTS
// =============================================================================

func TestNewServer(t *testing.T) {
	s := NewServer(0)

	if s == nil {
		t.Fatal("NewServer(0) returned nil")
	}

	if s.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", s.Port(), DefaultPort)
	}

	if s.Addr() != "127.0.0.1:8247" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8247", s.Addr())
	}
}

func TestNewServer_CustomPort(t *testing.T) {
	s := NewServer(9999)

	if s.Port() != 9999 {
		t.Errorf("Port() = %d, want 9999", s.Port())
	}
}

func TestServer_WithMethods(t *testing.T) {
	s := NewServer(0)

	if s.WithCatalog(nil) != s {
		t.Error("WithCatalog should return same server")
	}
	if s.WithAudit(nil) != s {
		t.Error("WithAudit should return same server")
	}
	if s.auditLog == nil {
		t.Error("WithAudit(nil) should leave a disabled logger, not nil")
	}
	if s.WithRateLimit(5, 10) != s {
		t.Error("WithRateLimit should return same server")
	}
	if s.WithHost("localhost") != s {
		t.Error("WithHost should return same server")
	}
	if s.WithTimeout(time.Second) != s {
		t.Error("WithTimeout should return same server")
	}
}

func TestServer_StartRefusesNonLoopback(t *testing.T) {
	s := NewServer(0).WithHost("0.0.0.0")

	err := s.Start()
	if err == nil {
		t.Fatal("Start() on 0.0.0.0 should fail")
	}
	if !strings.Contains(err.Error(), "non-loopback") {
		t.Errorf("error = %v, want non-loopback refusal", err)
	}
}

func TestLoopbackHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"127.0.0.1", true},
		{"127.0.0.53", true},
		{"::1", true},
		{"localhost", true},
		{"0.0.0.0", false},
		{"192.168.1.5", false},
		{"example.com", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := loopbackHost(tc.host); got != tc.want {
			t.Errorf("loopbackHost(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

// =============================================================================
// SELECTION BUILDING TESTS
// =============================================================================

func TestBuildSelection(t *testing.T) {
	tests := []struct {
		name    string
		req     RenderRequest
		wantErr bool
		check   func(t *testing.T, sel marking.Selection)
	}{
		{
			name: "secret noforn",
			req:  RenderRequest{Level: "SECRET", Controls: []string{"NOFORN"}},
			check: func(t *testing.T, sel marking.Selection) {
				if sel.Level != marking.LevelSecret {
					t.Errorf("Level = %v, want LevelSecret", sel.Level)
				}
				if !sel.HasControl(marking.ControlNOFORN) {
					t.Error("NOFORN should be set")
				}
			},
		},
		{
			name: "portion spellings",
			req:  RenderRequest{Level: "TS", Caveats: []string{"SI"}, Controls: []string{"NF"}},
			check: func(t *testing.T, sel marking.Selection) {
				if sel.Level != marking.LevelTopSecret {
					t.Errorf("Level = %v, want LevelTopSecret", sel.Level)
				}
				if !sel.HasCaveat(marking.CaveatSI) {
					t.Error("SI should be set")
				}
				if !sel.HasControl(marking.ControlNOFORN) {
					t.Error("NOFORN should be set")
				}
			},
		},
		{
			name: "hcsp forces noforn",
			req:  RenderRequest{Level: "TOP SECRET", Caveats: []string{"HCS-P"}},
			check: func(t *testing.T, sel marking.Selection) {
				if !sel.HasControl(marking.ControlNOFORN) {
					t.Error("HCS-P should force NOFORN on")
				}
			},
		},
		{
			name: "rel to implied by recipients",
			req:  RenderRequest{Level: "SECRET", RelTo: []string{"USA", "CAN"}},
			check: func(t *testing.T, sel marking.Selection) {
				if !sel.HasControl(marking.ControlRELTO) {
					t.Error("rel_to entries should imply REL TO")
				}
				got := sel.RelToRecipients()
				if len(got) != 2 || got[0] != "USA" || got[1] != "CAN" {
					t.Errorf("Recipients = %v, want [USA CAN]", got)
				}
			},
		},
		{
			name:    "noforn conflicts with rel to",
			req:     RenderRequest{Level: "SECRET", Controls: []string{"NOFORN"}, RelTo: []string{"USA", "CAN"}},
			wantErr: true,
		},
		{
			name:    "caveat without level",
			req:     RenderRequest{Caveats: []string{"SI"}},
			wantErr: true,
		},
		{
			name:    "exercise locks other fields",
			req:     RenderRequest{Exercise: true, Level: "SECRET"},
			wantErr: true,
		},
		{
			name:    "fgi without level",
			req:     RenderRequest{FGI: []string{"Germany"}},
			wantErr: true,
		},
		{
			name:    "unknown level",
			req:     RenderRequest{Level: "MODERATE"},
			wantErr: true,
		},
		{
			name:    "unknown control",
			req:     RenderRequest{Level: "SECRET", Controls: []string{"XYZZY"}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := BuildSelection(tc.req)
			if (err != nil) != tc.wantErr {
				t.Fatalf("BuildSelection() error = %v, wantErr = %v", err, tc.wantErr)
			}
			if tc.check != nil {
				tc.check(t, sel)
			}
		})
	}
}

// =============================================================================
// RENDER HANDLER TESTS
// =============================================================================

// postJSON runs one POST through the handler and returns the recorder.
func postJSON(s *Server, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleRender(t *testing.T) {
	s := NewServer(0)

	body := `{"level": "SECRET", "controls": ["NOFORN"], "derived_from": "OPORD 25-03", "declassify_on": "20350101"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var m marking.FinalizedMarking
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if m.BannerMarking != "SECRET//NOFORN" {
		t.Errorf("BannerMarking = %q, want SECRET//NOFORN", m.BannerMarking)
	}
	if m.PortionMarking != "(S//NF)" {
		t.Errorf("PortionMarking = %q, want (S//NF)", m.PortionMarking)
	}
	if m.DerivedFrom != "OPORD 25-03" {
		t.Errorf("DerivedFrom = %q", m.DerivedFrom)
	}
}

func TestHandleRender_RelToCanonicalOrder(t *testing.T) {
	s := NewServer(0)

	body := `{"level": "SECRET", "rel_to": ["USA", "GBR", "CAN"], "derived_from": "SCG 4-1", "declassify_on": "20301231"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	var m marking.FinalizedMarking
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if m.BannerMarking != "SECRET//REL TO USA, CAN, GBR" {
		t.Errorf("BannerMarking = %q, want SECRET//REL TO USA, CAN, GBR", m.BannerMarking)
	}
}

func TestHandleRender_FGIBlock(t *testing.T) {
	s := NewServer(0)

	body := `{"level": "SECRET", "fgi": ["Germany"], "controls": ["NOFORN"], "derived_from": "SCG 4-1", "declassify_on": "20301231"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	var m marking.FinalizedMarking
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if m.BannerMarking != "SECRET//FGI DEU//NOFORN" {
		t.Errorf("BannerMarking = %q, want SECRET//FGI DEU//NOFORN", m.BannerMarking)
	}
}

func TestHandleRender_Exercise(t *testing.T) {
	s := NewServer(0)

	w := postJSON(s, s.handleRender, "/v1/markings/render", `{"exercise": true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	var m marking.FinalizedMarking
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if m.BannerMarking != marking.BannerExercise {
		t.Errorf("BannerMarking = %q, want %q", m.BannerMarking, marking.BannerExercise)
	}
	if m.PortionMarking != "" {
		t.Errorf("PortionMarking = %q, want empty", m.PortionMarking)
	}
}

func TestHandleRender_IncompleteSelection(t *testing.T) {
	s := NewServer(0)

	// Missing derived_from
	body := `{"level": "SECRET", "controls": ["NOFORN"]}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleRender_ConflictingControls(t *testing.T) {
	s := NewServer(0)

	body := `{"level": "SECRET", "controls": ["NOFORN", "RELIDO"], "derived_from": "X", "declassify_on": "20300101"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d, body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestHandleRender_UnknownLevel(t *testing.T) {
	s := NewServer(0)

	w := postJSON(s, s.handleRender, "/v1/markings/render", `{"level": "MODERATE"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRender_InvalidJSON(t *testing.T) {
	s := NewServer(0)

	w := postJSON(s, s.handleRender, "/v1/markings/render", `{invalid json}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRender_TooManyRecipients(t *testing.T) {
	s := NewServer(0)

	entries := make([]string, MaxEntryCount+1)
	for i := range entries {
		entries[i] = "CAN"
	}
	req := RenderRequest{Level: "SECRET", RelTo: entries}
	body, _ := json.Marshal(req)

	w := postJSON(s, s.handleRender, "/v1/markings/render", string(body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRender_AuditTrail(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")

	l, err := audit.NewLogger(logPath)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })

	s := NewServer(0).WithAudit(l)

	body := `{"level": "SECRET", "controls": ["NOFORN"], "derived_from": "OPORD 25-03", "declassify_on": "20350101"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if !strings.Contains(string(data), `"action":"marking.render"`) {
		t.Error("audit trail should record marking.render")
	}
	if !strings.Contains(string(data), "SECRET//NOFORN") {
		t.Error("audit trail should record the rendered banner")
	}
}

func TestHandleRender_AuditFailure(t *testing.T) {
	dir := t.TempDir()

	l, err := audit.NewLogger(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	l.Close()

	s := NewServer(0).WithAudit(l)

	body := `{"level": "SECRET", "controls": ["NOFORN"], "derived_from": "X", "declassify_on": "20300101"}`
	w := postJSON(s, s.handleRender, "/v1/markings/render", body)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d; marking decisions must not outrun the trail", w.Code, http.StatusInternalServerError)
	}
}

// =============================================================================
// AGGREGATE HANDLER TESTS
// =============================================================================

func TestHandleAggregate(t *testing.T) {
	s := NewServer(0)

	// One portion form, one banner form
	body := `{"markings": ["(S//NF)", "UNCLASSIFIED"]}`
	w := postJSON(s, s.handleAggregate, "/v1/markings/aggregate", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp AggregateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Banner != "SECRET//NOFORN" {
		t.Errorf("Banner = %q, want SECRET//NOFORN", resp.Banner)
	}
	if resp.Markings != 2 {
		t.Errorf("Markings = %d, want 2", resp.Markings)
	}
}

func TestHandleAggregate_RelToIntersection(t *testing.T) {
	s := NewServer(0)

	body := `{"markings": ["SECRET//REL TO USA, CAN, GBR", "CONFIDENTIAL//REL TO USA, CAN"]}`
	w := postJSON(s, s.handleAggregate, "/v1/markings/aggregate", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp AggregateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Banner != "SECRET//REL TO USA, CAN" {
		t.Errorf("Banner = %q, want SECRET//REL TO USA, CAN", resp.Banner)
	}
}

func TestHandleAggregate_Empty(t *testing.T) {
	s := NewServer(0)

	w := postJSON(s, s.handleAggregate, "/v1/markings/aggregate", `{"markings": []}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleAggregate_UnrecognizedLine(t *testing.T) {
	s := NewServer(0)

	w := postJSON(s, s.handleAggregate, "/v1/markings/aggregate", `{"markings": ["SECRET//NOFORN", "MODERATE//SPICY"]}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleAggregate_TooMany(t *testing.T) {
	s := NewServer(0)

	markings := make([]string, MaxMarkingCount+1)
	for i := range markings {
		markings[i] = "UNCLASSIFIED"
	}
	req := AggregateRequest{Markings: markings}
	body, _ := json.Marshal(req)

	w := postJSON(s, s.handleAggregate, "/v1/markings/aggregate", string(body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// =============================================================================
// CATALOG HANDLER TESTS
// =============================================================================

func TestHandleCountries(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/v1/catalog/countries", nil)
	w := httptest.NewRecorder()

	s.handleCountries(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp CountriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Count == 0 || resp.Count != len(resp.Countries) {
		t.Errorf("Count = %d, len = %d", resp.Count, len(resp.Countries))
	}

	hasGermany := false
	for _, c := range resp.Countries {
		if c.Name == "Germany" && c.Trigraph == "DEU" {
			hasGermany = true
		}
	}
	if !hasGermany {
		t.Error("countries should include Germany/DEU")
	}
}

func TestHandleGroups(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/v1/catalog/groups", nil)
	w := httptest.NewRecorder()

	s.handleGroups(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp GroupsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	fvey := resp.Groups["FVEY"]
	if len(fvey) != 4 {
		t.Errorf("FVEY = %v, want 4 members", fvey)
	}
}

// =============================================================================
// HEALTH AND STATS HANDLER TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.Version != Version {
		t.Errorf("Version = %q, want %q", resp.Version, Version)
	}
	if resp.CatalogCountries == 0 {
		t.Error("CatalogCountries should be populated from the built-in catalog")
	}
	if resp.AuditEnabled {
		t.Error("AuditEnabled should be false without a logger")
	}
}

func TestHandleStats(t *testing.T) {
	s := NewServer(0)

	s.stats.RecordRender()
	s.stats.RecordAggregate(2)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()

	s.handleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp StatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", resp.TotalRequests)
	}
	if resp.RenderRequests != 1 {
		t.Errorf("RenderRequests = %d, want 1", resp.RenderRequests)
	}
	if resp.PortionsAggregated != 2 {
		t.Errorf("PortionsAggregated = %d, want 2", resp.PortionsAggregated)
	}
}

// =============================================================================
// ROUTING TESTS
// =============================================================================

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/v1/markings/render", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewClientLimiter(1, 1)
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "192.0.2.10:5000"

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req)
	if w1.Code != http.StatusOK {
		t.Errorf("first request Status = %d, want %d", w1.Code, http.StatusOK)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req)
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("second request Status = %d, want %d", w2.Code, http.StatusTooManyRequests)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestClientLimiter_Disabled(t *testing.T) {
	limiter := NewClientLimiter(0, 0)

	for i := 0; i < 100; i++ {
		if !limiter.Allow("192.0.2.1") {
			t.Fatal("disabled limiter should allow everything")
		}
	}
}

func TestClientLimiter_SweepIdle(t *testing.T) {
	limiter := NewClientLimiter(5, 5)

	limiter.Allow("192.0.2.1")
	limiter.Allow("192.0.2.2")

	if limiter.ClientCount() != 2 {
		t.Fatalf("ClientCount = %d, want 2", limiter.ClientCount())
	}

	limiter.sweepIdle(time.Now().Add(time.Minute))

	if limiter.ClientCount() != 0 {
		t.Errorf("ClientCount after sweep = %d, want 0", limiter.ClientCount())
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "127.0.0.1:5000",
			want:       "127.0.0.1",
		},
		{
			name:       "forwarded via loopback proxy",
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded chain takes first",
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 198.51.100.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "spoofed header from non-proxy ignored",
			remoteAddr: "192.0.2.9:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "192.0.2.9",
		},
		{
			name:       "invalid forwarded value falls back",
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "127.0.0.1",
		},
		{
			name:       "real ip honored from loopback",
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// CONSTANT TESTS
// =============================================================================

func TestConstants(t *testing.T) {
	if DefaultPort != 8247 {
		t.Errorf("DefaultPort = %d, want 8247", DefaultPort)
	}

	if MaxRequestBodySize != 1*1024*1024 {
		t.Errorf("MaxRequestBodySize = %d, want 1MB", MaxRequestBodySize)
	}

	if MaxMarkingCount != 500 {
		t.Errorf("MaxMarkingCount = %d, want 500", MaxMarkingCount)
	}
}
