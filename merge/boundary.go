package merge

import (
	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/refine"
)

// side selects which analysis an emitted line originates from
type side int

const (
	sideTemplate side = iota
	sideDestination
)

// emitLine appends one line with its origin, suppressing a blank line when
// the buffer already ends with one. The resolver never emits two consecutive
// blank lines.
func (m *smartMerger) emitLine(from side, line int, decision Decision) {
	var text string
	if from == sideTemplate {
		text = m.template.Line(line)
	} else {
		text = m.destination.Line(line)
	}
	if isBlank(text) && (m.buffer.empty() || m.buffer.endsWithBlank()) {
		return
	}
	if from == sideTemplate {
		m.buffer.appendTemplate(text, decision, line)
	} else {
		m.buffer.appendDestination(text, decision, line)
	}
}

// emitRange appends lines from..to inclusive with the blank-line guard
func (m *smartMerger) emitRange(from side, start, end int, decision Decision) {
	for line := start; line <= end; line++ {
		m.emitLine(from, line, decision)
	}
}

// emitRangeRaw appends a statement's own lines verbatim, with no blank
// collapsing: a node or freeze region owns its internal spacing
func (m *smartMerger) emitRangeRaw(from side, start, end int, decision Decision) {
	for line := start; line <= end; line++ {
		if from == sideTemplate {
			m.buffer.appendTemplate(m.template.Line(line), decision, line)
		} else {
			m.buffer.appendDestination(m.destination.Line(line), decision, line)
		}
	}
}

// resolveBoundary merges the gap between two adjacent anchors
func (m *smartMerger) resolveBoundary(b *boundary) {
	templateEmpty := b.template.isEmpty()
	destinationEmpty := b.destination.isEmpty()
	switch {
	case templateEmpty && destinationEmpty:
		return
	case templateEmpty:
		m.emitDestinationOnly(b.destination)
		return
	case destinationEmpty:
		m.emitTemplateOnly(b.template)
		return
	}
	m.resolveTwoSided(b)
}

// emitDestinationOnly emits a destination-only gap line by line through the
// blank-line guard, so blank runs collapse to one; lines inside freeze
// regions keep their freeze decision
func (m *smartMerger) emitDestinationOnly(r lineRange) {
	for line := r.start; line <= r.end; line++ {
		decision := DecisionKeptDestination
		if m.destination.InFreezeRegion(line) {
			decision = DecisionFreezeBlock
		}
		m.emitLine(sideDestination, line, decision)
	}
}

// emitTemplateOnly emits a template-only gap, subject to the
// add-template-only policy
func (m *smartMerger) emitTemplateOnly(r lineRange) {
	if !m.config.AddTemplateOnlyNodes {
		return
	}
	m.emitRange(sideTemplate, r.start, r.end, DecisionKeptTemplate)
}

// resolveTwoSided pairs the statements inside a two-sided gap by signature
// and refiners, emits them per preference, and appends what only the
// destination has.
func (m *smartMerger) resolveTwoSided(b *boundary) {
	templateStmts := m.template.StatementsIn(b.template.start, b.template.end)
	destStmts := m.destination.StatementsIn(b.destination.start, b.destination.end)

	matched := make([]bool, len(destStmts))

	// Destination freeze regions come first, verbatim
	for i, statement := range destStmts {
		if !statement.IsRegion() {
			continue
		}
		m.emitRangeRaw(sideDestination, statement.Region.StartLine, statement.Region.EndLine, DecisionFreezeBlock)
		matched[i] = true
	}

	signatureToDest := make(map[string][]int)
	for i, statement := range destStmts {
		if matched[i] || statement.IsRegion() {
			continue
		}
		key := statement.Signature.Key()
		signatureToDest[key] = append(signatureToDest[key], i)
	}

	refined := m.refinerPairings(templateStmts, destStmts, signatureToDest)

	cursor := b.template.start
	skippedTail := false
	for ti, statement := range templateStmts {
		leadStart := statement.LeadStartLine()

		destIndex := -1
		bySignature := false
		if indexes, ok := signatureToDest[statement.Signature.Key()]; ok && len(indexes) > 0 {
			destIndex = indexes[0]
			bySignature = true
		} else if paired, ok := refined[ti]; ok && !matched[paired] {
			destIndex = paired
		}

		if destIndex >= 0 {
			m.emitFreeLines(cursor, leadStart-1)
			m.emitPair(statement, destStmts[destIndex])
			if bySignature {
				key := statement.Signature.Key()
				for _, index := range signatureToDest[key] {
					matched[index] = true
				}
				delete(signatureToDest, key)
			} else {
				matched[destIndex] = true
			}
			m.emitTrailingBlank(sideDestination, m.destination, destStmts[destIndex].EndLine()+1, DecisionKeptDestination)
			skippedTail = false
		} else if m.config.AddTemplateOnlyNodes {
			m.emitFreeLines(cursor, leadStart-1)
			m.emitRangeRaw(sideTemplate, leadStart, statement.EndLine(), DecisionKeptTemplate)
			m.emitTrailingBlank(sideTemplate, m.template, statement.EndLine()+1, DecisionKeptTemplate)
			skippedTail = false
		} else {
			// The node, its leading comments and any free-floating lines
			// above it vanish together.
			skippedTail = true
		}
		cursor = statement.EndLine() + 1
	}

	if !skippedTail {
		m.emitRange(sideTemplate, cursor, b.template.end, DecisionKeptTemplate)
	}

	m.appendUnmatched(destStmts, matched, b.destination)
}

// emitPair emits one signature- or refiner-matched pair per the effective
// preference; a frozen destination node overrides any preference.
func (m *smartMerger) emitPair(templateStmt, destStmt *analysis.Statement) {
	templateNode, destNode := templateStmt.Node, destStmt.Node

	if destNode != nil && destNode.FrozenOn(m.config.FreezeToken) {
		m.emitRangeRaw(sideDestination, destStmt.LeadStartLine(), destStmt.EndLine(), DecisionFreezeBlock)
		return
	}

	if m.recursivelyMergeable(templateNode, destNode) {
		if m.emitRecursive(templateNode, destNode) {
			return
		}
	}

	preference := m.config.preferenceFor(templateNode, destNode)
	if preference == PreferTemplate {
		if templateNode != nil && len(templateNode.LeadingComments) == 0 &&
			destNode != nil && len(destNode.LeadingComments) > 0 {
			m.emitRangeRaw(sideDestination, destStmt.LeadStartLine(), destNode.StartLine-1, DecisionReplaced)
			m.emitRangeRaw(sideTemplate, templateNode.StartLine, templateStmt.EndLine(), DecisionReplaced)
			return
		}
		m.emitRangeRaw(sideTemplate, templateStmt.LeadStartLine(), templateStmt.EndLine(), DecisionReplaced)
		return
	}
	m.emitRangeRaw(sideDestination, destStmt.LeadStartLine(), destStmt.EndLine(), DecisionReplaced)
}

// emitFreeLines emits the free-floating template lines between the cursor
// and the next statement's leading comments; blank runs collapse to one so
// repeated merges agree on spacing
func (m *smartMerger) emitFreeLines(start, end int) {
	m.emitRange(sideTemplate, start, end, DecisionKeptTemplate)
}

// emitTrailingBlank preserves a single blank separator following a statement
func (m *smartMerger) emitTrailingBlank(from side, view *analysis.FileAnalysis, line int, decision Decision) {
	if line > view.Buffer.LineCount() || !view.Buffer.IsBlankLine(line) {
		return
	}
	m.emitLine(from, line, decision)
}

// appendUnmatched appends every destination statement that never matched, in
// destination order, separated from prior content by one blank line
func (m *smartMerger) appendUnmatched(destStmts []*analysis.Statement, matched []bool, destRange lineRange) {
	first := true
	for i, statement := range destStmts {
		if matched[i] {
			continue
		}
		if first {
			first = false
			if !m.buffer.empty() && !m.buffer.endsWithBlank() {
				m.appendSeparatorBlank(statement, destRange)
			}
		}
		m.emitRangeRaw(sideDestination, statement.LeadStartLine(), statement.EndLine(), DecisionAppended)
		m.emitTrailingBlank(sideDestination, m.destination, statement.EndLine()+1, DecisionAppended)
	}
}

// appendSeparatorBlank emits the blank line above the first appended node,
// sourced from the destination when it has one
func (m *smartMerger) appendSeparatorBlank(statement *analysis.Statement, destRange lineRange) {
	above := statement.LeadStartLine() - 1
	if above >= destRange.start && m.destination.Buffer.IsBlankLine(above) {
		m.buffer.appendDestination(m.destination.Line(above), DecisionAppended, above)
		return
	}
	m.buffer.appendSynthetic("", DecisionAppended)
}

// refinerPairings runs the configured refiners over the residual nodes of a
// boundary and maps template statement indexes to destination statement
// indexes
func (m *smartMerger) refinerPairings(templateStmts, destStmts []*analysis.Statement, signatureToDest map[string][]int) map[int]int {
	if len(m.config.Refiners) == 0 {
		return nil
	}

	var residualTemplate []*model.Node
	var templateIndexes []int
	for i, statement := range templateStmts {
		if statement.IsRegion() || statement.Node == nil {
			continue
		}
		if _, ok := signatureToDest[statement.Signature.Key()]; ok {
			continue
		}
		residualTemplate = append(residualTemplate, statement.Node)
		templateIndexes = append(templateIndexes, i)
	}

	templateKeys := make(map[string]bool, len(templateStmts))
	for _, statement := range templateStmts {
		templateKeys[statement.Signature.Key()] = true
	}
	var residualDest []*model.Node
	var destIndexes []int
	for i, statement := range destStmts {
		if statement.IsRegion() || statement.Node == nil {
			continue
		}
		if templateKeys[statement.Signature.Key()] {
			continue
		}
		residualDest = append(residualDest, statement.Node)
		destIndexes = append(destIndexes, i)
	}

	if len(residualTemplate) == 0 || len(residualDest) == 0 {
		return nil
	}

	ctx := &refine.Context{
		TemplateBuffer:    m.template.Buffer,
		DestinationBuffer: m.destination.Buffer,
	}
	paired := refine.Apply(m.config.Refiners, residualTemplate, residualDest, ctx)

	result := make(map[int]int, len(paired))
	for templateResidual, destResidual := range paired {
		result[templateIndexes[templateResidual]] = destIndexes[destResidual]
	}
	return result
}

func isBlank(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
