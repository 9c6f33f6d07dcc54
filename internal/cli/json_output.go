// json_output.go - JSON output support for markforge CLI commands.
//
// Provides a standardized JSON output format so the CLI can be scripted
// and its output fed into document production pipelines.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/registry"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// OutputJSON runs handler and, in JSON mode, wraps its result in the
// standard envelope. Outside JSON mode the handler's own printing stands.
func OutputJSON(jsonMode bool, command string, handler func() (interface{}, error)) error {
	if !jsonMode {
		_, err := handler()
		return err
	}

	data, err := handler()
	if err != nil {
		resp := NewJSONErrorResponse(command, err)
		resp.Print()
		return err
	}

	resp := NewJSONResponse(command, data)
	return resp.Print()
}

// StderrPrintln prints a line to stderr (for human-readable output in JSON mode).
func StderrPrintln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// RenderData represents the data returned by the render command.
type RenderData struct {
	Portion      string `json:"portion_marking"`
	Banner       string `json:"banner_marking"`
	DerivedFrom  string `json:"derived_from,omitempty"`
	DeclassifyOn string `json:"declassify_on,omitempty"`
}

// AggregateData represents the data returned by the aggregate command.
type AggregateData struct {
	Banner   string   `json:"banner_marking"`
	Portions []string `json:"portions"`
}

// CatalogData represents the data returned by catalog subcommands.
type CatalogData struct {
	Countries []CatalogCountry    `json:"countries,omitempty"`
	Groups    map[string][]string `json:"groups,omitempty"`
	Shortcuts []string            `json:"shortcuts,omitempty"`
	Overlay   string              `json:"overlay_path,omitempty"`
}

// CatalogCountry is one country entry in catalog output.
type CatalogCountry struct {
	Name     string `json:"name"`
	Trigraph string `json:"trigraph"`
}

// DocumentData represents one registry document with its portions.
type DocumentData struct {
	Document registry.Document  `json:"document"`
	Portions []registry.Portion `json:"portions,omitempty"`
	Banner   string             `json:"banner_marking,omitempty"`
}

// RegistryListData represents the registry list output.
type RegistryListData struct {
	Documents []registry.Document `json:"documents"`
}

// AuditShowData represents audit show output.
type AuditShowData struct {
	Path    string        `json:"path"`
	Entries []interface{} `json:"entries"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// renderData converts a finalized marking into the JSON payload.
func renderData(m marking.FinalizedMarking) RenderData {
	return RenderData{
		Portion:      m.PortionMarking,
		Banner:       m.BannerMarking,
		DerivedFrom:  m.DerivedFrom,
		DeclassifyOn: m.DeclassifyOn,
	}
}
