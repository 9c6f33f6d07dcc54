// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a loopback HTTP API over the marking engine.
//
// This package exposes marking composition and aggregation to local
// tooling (editors, document pipelines, scripts) that cannot link the
// engine directly.
//
// # Endpoints
//
//   - POST /v1/markings/render    - Render a portion and banner marking
//   - POST /v1/markings/aggregate - Roll portion markings up to a banner
//   - GET  /v1/catalog/countries  - List catalog countries and trigraphs
//   - GET  /v1/catalog/groups     - List releasability group expansions
//   - GET  /health                - Health check
//   - GET  /stats                 - Usage statistics
//
// # Security Posture
//
//   - Binds loopback only; the service is never exposed off-host
//   - Request bodies capped at MaxRequestBodySize
//   - Per-client token bucket rate limiting (golang.org/x/time/rate)
//   - Security headers on every response
//   - Panic recovery with stack trace logging
//   - Render and aggregate decisions recorded to the audit trail
//
// # Key Types
//
//   - Server: HTTP server with router, middleware, and engine wiring
//   - ServerStats: atomic usage counters reported by /stats
//   - ClientLimiter: per-client rate limiter
//
// # Usage
//
//	srv := server.NewServer(0).
//		WithCatalog(cat).
//		WithAudit(auditLog)
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server
