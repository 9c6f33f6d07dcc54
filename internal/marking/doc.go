// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package marking implements the classification marking composition engine.
//
// The engine composes and merges government-style classification and
// dissemination markings per DoDM 5200.01 Volume 2 and the CAPCO register
// conventions: portion markings ("(S//SI//NF)") and banner lines
// ("SECRET//SI//NOFORN").
//
// # Components
//
//   - Selection: the mutable state of one in-progress marking decision.
//     A plain state container; it never enforces cross-field rules.
//   - Next / Available: the constraint engine. Next is a pure reducer
//     mapping (Selection, Toggle) to the next legal Selection, applying
//     every cascading clear/force rule in one atomic step. Available is
//     the derived projection of which fields may currently be toggled,
//     always computed fresh from state.
//   - Assembler: renders one validated Selection into an immutable
//     FinalizedMarking (portion, banner, derived-from, declassify-on).
//   - Aggregator: merges many finalized markings into a single composite,
//     most-restrictive banner line.
//
// # Marking grammar
//
// A marking is a sequence of blocks: level, SCI caveats, FGI, dissemination
// controls. `//` opens each block; tokens within an open block chain with
// `/`. The portion marking uses abbreviated tokens and is wrapped in
// parentheses; the banner uses full words.
//
// All operations are synchronous and pure: values in, values out, no I/O.
// Distinct Selections are fully independent, and the aggregator may be
// invoked concurrently for different marking sets.
package marking
