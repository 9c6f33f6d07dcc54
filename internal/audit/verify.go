// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// INTEGRITY VERIFICATION
// =============================================================================

// Report summarizes an integrity check of one audit trail file.
type Report struct {
	Verified bool     `json:"verified"`
	Entries  int      `json:"entries"`
	Issues   []string `json:"issues,omitempty"`
}

// VerifyFile checks the HMAC chain of the JSON-lines trail at path. Every
// entry must link to its predecessor and carry a valid chain hash under
// key. Rotated files verify independently because rotation starts a new
// chain.
func VerifyFile(path string, key []byte) (*Report, error) {
	if len(key) == 0 {
		return nil, ErrNoKeyConfigured
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}

	report := &Report{Verified: true}
	prev := ""
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			report.issue(fmt.Sprintf("line %d: not valid JSON: %v", i+1, err))
			continue
		}
		report.Entries++

		if e.Chain == "" {
			report.issue(fmt.Sprintf("line %d: missing chain hash", i+1))
			prev = ""
			continue
		}
		if e.Prev != prev {
			report.issue(fmt.Sprintf("line %d: broken chain linkage", i+1))
		}

		saved := e.Chain
		e.Chain = ""
		unsigned, err := json.Marshal(e)
		if err != nil {
			report.issue(fmt.Sprintf("line %d: failed to remarshal: %v", i+1, err))
			prev = saved
			continue
		}
		// Constant-time comparison.
		if !hmac.Equal([]byte(computeChain(unsigned, key)), []byte(saved)) {
			report.issue(fmt.Sprintf("line %d: chain hash mismatch", i+1))
		}
		prev = saved
	}

	return report, nil
}

func (r *Report) issue(msg string) {
	r.Verified = false
	r.Issues = append(r.Issues, msg)
}
