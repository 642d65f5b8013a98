package merge

import (
	"strings"
)

// Decision classifies how each output line was chosen
type Decision int

const (
	// DecisionKeptTemplate marks a line taken from the template unchanged
	DecisionKeptTemplate Decision = iota
	// DecisionKeptDestination marks a line taken from the destination unchanged
	DecisionKeptDestination
	// DecisionReplaced marks a line of a construct resolved by preference
	DecisionReplaced
	// DecisionAppended marks a destination-only line added after the walk
	DecisionAppended
	// DecisionFreezeBlock marks a line preserved by a freeze region or marker
	DecisionFreezeBlock
)

var decisionNames = map[Decision]string{
	DecisionKeptTemplate:    "kept_template",
	DecisionKeptDestination: "kept_destination",
	DecisionReplaced:        "replaced",
	DecisionAppended:        "appended",
	DecisionFreezeBlock:     "freeze_block",
}

// String returns the decision name
func (d Decision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return "unknown"
}

// LineProvenance records one output line's decision and originating lines.
// TemplateLine and DestLine are 1-based; zero means unset. Lines synthesized
// by a recursive body merge carry neither origin.
type LineProvenance struct {
	Line         int
	Decision     Decision
	TemplateLine int
	DestLine     int
}

// Result is a finalized merge: the merged source, the per-decision tally and
// the per-line provenance table.
type Result struct {
	Content    string
	Stats      map[Decision]int
	Provenance []LineProvenance
}

// DecisionAt returns the decision for a 1-based output line
func (r *Result) DecisionAt(line int) (Decision, bool) {
	if line < 1 || line > len(r.Provenance) {
		return 0, false
	}
	return r.Provenance[line-1].Decision, true
}

// bufferLine is one pending output line with its provenance
type bufferLine struct {
	text         string
	decision     Decision
	templateLine int
	destLine     int
}

// resultBuffer is the append-only line accumulator the merge emits into
type resultBuffer struct {
	lines []bufferLine
}

// appendTemplate appends a line originating at a 1-based template line
func (b *resultBuffer) appendTemplate(text string, decision Decision, line int) {
	b.lines = append(b.lines, bufferLine{text: text, decision: decision, templateLine: line})
}

// appendDestination appends a line originating at a 1-based destination line
func (b *resultBuffer) appendDestination(text string, decision Decision, line int) {
	b.lines = append(b.lines, bufferLine{text: text, decision: decision, destLine: line})
}

// appendSynthetic appends a line with no single-side origin, such as a line
// produced by a recursive body merge
func (b *resultBuffer) appendSynthetic(text string, decision Decision) {
	b.lines = append(b.lines, bufferLine{text: text, decision: decision})
}

// empty reports whether nothing has been emitted yet
func (b *resultBuffer) empty() bool {
	return len(b.lines) == 0
}

// endsWithBlank reports whether the last emitted line is blank
func (b *resultBuffer) endsWithBlank() bool {
	if len(b.lines) == 0 {
		return false
	}
	return strings.TrimSpace(b.lines[len(b.lines)-1].text) == ""
}

// finalize consumes the buffer into a Result
func (b *resultBuffer) finalize() *Result {
	texts := make([]string, len(b.lines))
	stats := make(map[Decision]int)
	provenance := make([]LineProvenance, len(b.lines))
	for i, line := range b.lines {
		texts[i] = line.text
		stats[line.decision]++
		provenance[i] = LineProvenance{
			Line:         i + 1,
			Decision:     line.decision,
			TemplateLine: line.templateLine,
			DestLine:     line.destLine,
		}
	}
	content := strings.Join(texts, "\n")
	if len(texts) > 0 {
		content += "\n"
	}
	return &Result{
		Content:    content,
		Stats:      stats,
		Provenance: provenance,
	}
}
