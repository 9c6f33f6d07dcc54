// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// Banner aggregation: derive the overall document banner from the banner
// markings of its portions. The result is the most restrictive legal
// combination of everything the portions carry.

package marking

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jeranaias/markforge/internal/util"
)

// Aggregator folds portion banners into a document banner. Groups maps
// releasability shorthand to member trigraphs; nil means DefaultGroups.
type Aggregator struct {
	Groups map[string][]string
}

// NewAggregator returns an Aggregator using the given group table.
func NewAggregator(groups map[string][]string) *Aggregator {
	return &Aggregator{Groups: groups}
}

// Aggregate computes the document banner for a set of finalized portion
// markings.
func (g *Aggregator) Aggregate(markings []FinalizedMarking) (string, error) {
	banners := make([]string, len(markings))
	for i, m := range markings {
		banners[i] = m.BannerMarking
	}
	return g.AggregateBanners(banners)
}

// AggregateBanners computes the document banner for a set of marking
// lines. Lines may be banner form or parenthesized portion form; level
// and control tokens parse in either spelling.
//
// The result carries the highest classification level present, the union
// of SCI caveats, the union of FGI trigraphs, and the most restrictive
// dissemination: NOFORN anywhere overrides releasability, and REL TO lists
// fold to the recipients every releasable portion permits. An empty
// intersection is NOFORN. Exercise banners contribute nothing; a document
// of only exercise portions is itself an exercise document.
//
// Unrecognized lines are rejected rather than skipped. Silently dropping
// a portion from the roll-up would understate the document's
// classification.
func (g *Aggregator) AggregateBanners(banners []string) (string, error) {
	if len(banners) == 0 {
		return "", ErrNoMarkings
	}

	var (
		level    Level
		caveats  CaveatSet
		fgi      []string
		controls ControlSet
		relSets  []map[string]bool
		real     int
	)

	for _, raw := range banners {
		banner := strings.TrimSpace(raw)
		if strings.HasPrefix(banner, "(") && strings.HasSuffix(banner, ")") {
			banner = strings.TrimSpace(banner[1 : len(banner)-1])
		}
		if banner == BannerExercise {
			continue
		}
		real++

		segs := strings.Split(banner, "//")
		lv, ok := ParseLevel(strings.TrimSpace(segs[0]))
		if !ok {
			return "", &ValidationError{Field: "banners", Message: fmt.Sprintf("unrecognized classification in %q", raw)}
		}
		level = HighestLevel(level, lv)

		for _, seg := range segs[1:] {
			seg = strings.TrimSpace(seg)
			if tris, ok := strings.CutPrefix(seg, "FGI"); ok {
				fgi = append(fgi, strings.Fields(tris)...)
				continue
			}
			for _, tok := range strings.Split(seg, "/") {
				tok = strings.TrimSpace(tok)
				if c, ok := ParseCaveat(tok); ok {
					caveats = caveats.with(c)
					continue
				}
				if rec, ok := strings.CutPrefix(tok, "REL TO"); ok {
					relSets = append(relSets, g.recipientSet(rec))
					continue
				}
				if c, ok := ParseControl(tok); ok {
					controls = controls.with(c)
				}
			}
		}
	}

	if real == 0 {
		return BannerExercise, nil
	}
	if level == LevelNone {
		return "", ErrNoLevel
	}

	sel := Selection{Level: level, Caveats: caveats, Controls: controls, FGI: fgi}

	if !controls.Has(ControlNOFORN) && len(relSets) > 0 {
		shared := intersect(relSets)
		if len(shared) == 0 {
			sel.Controls = sel.Controls.with(ControlNOFORN)
		} else {
			sel.Controls = sel.Controls.with(ControlRELTO)
			sel.Recipients = append([]string{"USA"}, shared...)
		}
	}

	normalize(&sel)

	a := Assembler{Groups: g.Groups}
	return a.compose(sel, sel.Level.String(), Caveat.String, Control.String), nil
}

// recipientSet parses one REL TO tail into an expanded trigraph set. USA
// is implied and excluded.
func (g *Aggregator) recipientSet(tail string) map[string]bool {
	groups := g.Groups
	if groups == nil {
		groups = DefaultGroups()
	}
	set := make(map[string]bool)
	for _, r := range util.SplitRecipients(tail) {
		if members, ok := groups[r]; ok {
			for _, m := range members {
				set[m] = true
			}
			continue
		}
		if r != "USA" {
			set[r] = true
		}
	}
	return set
}

// intersect returns the sorted trigraphs present in every set.
func intersect(sets []map[string]bool) []string {
	shared := make([]string, 0, len(sets[0]))
	for tri := range sets[0] {
		in := true
		for _, s := range sets[1:] {
			if !s[tri] {
				in = false
				break
			}
		}
		if in {
			shared = append(shared, tri)
		}
	}
	// map iteration order is random
	slices.Sort(shared)
	return shared
}
