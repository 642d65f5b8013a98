package merge

import (
	"sort"

	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
)

// matchType is how an anchor was discovered
type matchType int

const (
	// matchExact pairs identical normalized line runs
	matchExact matchType = iota
	// matchSignature pairs statements with equal signatures
	matchSignature
	// matchFreeze pairs freeze regions; the destination side is preserved
	matchFreeze
)

// lineRange is an inclusive 1-based line span; the zero value is empty
type lineRange struct {
	start, end int
}

func (r lineRange) isEmpty() bool {
	return r.start == 0 || r.end < r.start
}

func (r lineRange) overlaps(other lineRange) bool {
	if r.isEmpty() || other.isEmpty() {
		return false
	}
	return r.start <= other.end && other.start <= r.end
}

// anchor is a matched pair of line ranges between template and destination.
// Content inside an anchor is not re-merged at its level. Statement indexes
// point into the analyses' statement sequences; -1 for line-based anchors.
type anchor struct {
	template     lineRange
	destination  lineRange
	kind         matchType
	templateStmt int
	destStmt     int
}

// boundary is the gap between two adjacent anchors; either side may be empty
type boundary struct {
	template    lineRange
	destination lineRange
}

// timelineEntry is one step of the merge walk: an anchor or a boundary
type timelineEntry struct {
	anchor   *anchor
	boundary *boundary
}

// genericKeywords are structural lines excluded from exact-line anchoring
var genericKeywords = map[string]bool{
	"end":    true,
	"else":   true,
	"elsif":  true,
	"when":   true,
	"rescue": true,
	"ensure": true,
}

// discoverAnchors runs the deterministic multi-pass anchor discovery
func discoverAnchors(template, destination *analysis.FileAnalysis) []*anchor {
	// Whole-file shortcut: identical inputs collapse to one exact anchor
	if linesEqual(template.Buffer.AllLines(), destination.Buffer.AllLines()) && template.Buffer.LineCount() > 0 {
		return []*anchor{{
			template:     lineRange{1, template.Buffer.LineCount()},
			destination:  lineRange{1, destination.Buffer.LineCount()},
			kind:         matchExact,
			templateStmt: -1,
			destStmt:     -1,
		}}
	}

	var anchors []*anchor

	// Signature-based anchors: first unmatched destination statement with the
	// same signature wins.
	destUsed := make([]bool, len(destination.Statements))
	for ti, templateStmt := range template.Statements {
		if templateStmt.Signature.IsZero() {
			continue
		}
		for di, destStmt := range destination.Statements {
			if destUsed[di] || !templateStmt.Signature.Equal(destStmt.Signature) {
				continue
			}
			destUsed[di] = true
			kind := matchSignature
			if templateStmt.IsRegion() && destStmt.IsRegion() {
				kind = matchFreeze
			}
			anchors = append(anchors, &anchor{
				template:     lineRange{templateStmt.LeadStartLine(), templateStmt.EndLine()},
				destination:  lineRange{destStmt.LeadStartLine(), destStmt.EndLine()},
				kind:         kind,
				templateStmt: ti,
				destStmt:     di,
			})
			break
		}
	}

	anchors = append(anchors, exactLineAnchors(template, destination, anchors)...)
	anchors = append(anchors, freezeAnchors(template, destination, anchors)...)

	sortAnchors(anchors)
	return anchors
}

// exactLineAnchors greedily pairs identical normalized lines that are not
// blank, not generic keywords, and not covered by any top-level statement.
func exactLineAnchors(template, destination *analysis.FileAnalysis, existing []*anchor) []*anchor {
	destEligible := eligibleLines(destination)
	destByKey := make(map[uint64][]int)
	for _, line := range destEligible {
		key := lineKey(destination.NormalizedLine(line))
		destByKey[key] = append(destByKey[key], line)
	}
	destTaken := make(map[int]bool)

	type pair struct{ template, destination int }
	var pairs []pair
	for _, line := range eligibleLines(template) {
		key := lineKey(template.NormalizedLine(line))
		for _, destLine := range destByKey[key] {
			if destTaken[destLine] {
				continue
			}
			destTaken[destLine] = true
			pairs = append(pairs, pair{template: line, destination: destLine})
			break
		}
	}

	// Merge contiguous pairs into ranges
	var anchors []*anchor
	for i := 0; i < len(pairs); {
		j := i
		for j+1 < len(pairs) &&
			pairs[j+1].template == pairs[j].template+1 &&
			pairs[j+1].destination == pairs[j].destination+1 {
			j++
		}
		candidate := &anchor{
			template:     lineRange{pairs[i].template, pairs[j].template},
			destination:  lineRange{pairs[i].destination, pairs[j].destination},
			kind:         matchExact,
			templateStmt: -1,
			destStmt:     -1,
		}
		if !overlapsAny(candidate, existing) && !overlapsAny(candidate, anchors) {
			anchors = append(anchors, candidate)
		}
		i = j + 1
	}
	return anchors
}

// freezeAnchors pairs destination freeze regions to template regions by their
// opening marker line text
func freezeAnchors(template, destination *analysis.FileAnalysis, existing []*anchor) []*anchor {
	var anchors []*anchor
	for _, destRegion := range destination.Regions {
		var templateRegion *model.FreezeRegion
		for _, candidate := range template.Regions {
			if candidate.NormalizedStartMarker() == destRegion.NormalizedStartMarker() {
				templateRegion = candidate
				break
			}
		}
		if templateRegion == nil {
			continue
		}
		candidate := &anchor{
			template:     lineRange{templateRegion.StartLine, templateRegion.EndLine},
			destination:  lineRange{destRegion.StartLine, destRegion.EndLine},
			kind:         matchFreeze,
			templateStmt: -1,
			destStmt:     -1,
		}
		if !overlapsAny(candidate, existing) && !overlapsAny(candidate, anchors) {
			anchors = append(anchors, candidate)
		}
	}
	return anchors
}

// eligibleLines returns the line numbers that participate in exact-line
// anchoring for one side
func eligibleLines(view *analysis.FileAnalysis) []int {
	covered := make(map[int]bool)
	for _, statement := range view.Statements {
		for line := statement.LeadStartLine(); line <= statement.EndLine(); line++ {
			covered[line] = true
		}
	}
	var lines []int
	for line := 1; line <= view.Buffer.LineCount(); line++ {
		if covered[line] {
			continue
		}
		normalized := view.NormalizedLine(line)
		if normalized == "" || genericKeywords[normalized] {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// lineKey hashes a normalized line for map lookup
func lineKey(normalized string) uint64 {
	key, err := model.Hash([]byte(normalized))
	if err != nil {
		// highwayhash only fails on a malformed key; fall back to length
		return uint64(len(normalized))
	}
	return key
}

func overlapsAny(candidate *anchor, anchors []*anchor) bool {
	for _, existing := range anchors {
		if candidate.template.overlaps(existing.template) ||
			candidate.destination.overlaps(existing.destination) {
			return true
		}
	}
	return false
}

func sortAnchors(anchors []*anchor) {
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].template.start < anchors[j].template.start
	})
}

// buildTimeline interleaves anchors with the boundaries between them, in
// template order, including the leading and trailing gaps
func buildTimeline(anchors []*anchor, templateLines, destinationLines int) []timelineEntry {
	var timeline []timelineEntry
	previousTemplate, previousDestination := 0, 0

	pushBoundary := func(templateEnd, destinationEnd int) {
		gap := &boundary{
			template:    normalizeRange(previousTemplate+1, templateEnd),
			destination: normalizeRange(previousDestination+1, destinationEnd),
		}
		if !gap.template.isEmpty() || !gap.destination.isEmpty() {
			timeline = append(timeline, timelineEntry{boundary: gap})
		}
	}

	for _, a := range anchors {
		pushBoundary(a.template.start-1, a.destination.start-1)
		timeline = append(timeline, timelineEntry{anchor: a})
		if a.template.end > previousTemplate {
			previousTemplate = a.template.end
		}
		if a.destination.end > previousDestination {
			previousDestination = a.destination.end
		}
	}
	pushBoundary(templateLines, destinationLines)
	return timeline
}

func normalizeRange(start, end int) lineRange {
	if start < 1 || end < start {
		return lineRange{}
	}
	return lineRange{start, end}
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
