package merge

import (
	"strings"

	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
)

// smartMerger drives one level of the merge: it walks the timeline of anchors
// and boundaries and emits merged lines, recursing into matched compound
// bodies where mergeable.
type smartMerger struct {
	config      *Config
	depth       int
	template    *analysis.FileAnalysis
	destination *analysis.FileAnalysis
	buffer      *resultBuffer
}

// mergeSources analyzes both inputs and runs one merge level
func mergeSources(template, destination string, config *Config, depth int) (*Result, error) {
	templateView, err := analysis.Analyze([]byte(template), config.analysisOptions())
	if err != nil {
		return nil, err
	}
	if !templateView.Valid {
		return nil, &TemplateParseError{Content: template, Diagnostics: templateView.Diagnostics}
	}

	destinationView, err := analysis.Analyze([]byte(destination), config.analysisOptions())
	if err != nil {
		return nil, err
	}
	if !destinationView.Valid {
		return nil, &DestinationParseError{Content: destination, Diagnostics: destinationView.Diagnostics}
	}

	merger := &smartMerger{
		config:      config,
		depth:       depth,
		template:    templateView,
		destination: destinationView,
		buffer:      &resultBuffer{},
	}
	return merger.run()
}

func (m *smartMerger) run() (*Result, error) {
	anchors := discoverAnchors(m.template, m.destination)
	timeline := buildTimeline(anchors, m.template.Buffer.LineCount(), m.destination.Buffer.LineCount())
	for _, entry := range timeline {
		if entry.boundary != nil {
			m.resolveBoundary(entry.boundary)
			continue
		}
		m.emitAnchor(entry.anchor)
	}
	return m.buffer.finalize(), nil
}

// emitAnchor emits merged content for one anchor per its match type
func (m *smartMerger) emitAnchor(a *anchor) {
	switch a.kind {
	case matchExact:
		for line := a.template.start; line <= a.template.end; line++ {
			m.buffer.appendTemplate(m.template.Line(line), DecisionKeptTemplate, line)
		}
	case matchFreeze:
		for line := a.destination.start; line <= a.destination.end; line++ {
			m.buffer.appendDestination(m.destination.Line(line), DecisionFreezeBlock, line)
		}
	case matchSignature:
		m.emitSignatureAnchor(a)
	}
}

// emitSignatureAnchor resolves a signature-matched statement pair: recursive
// body merge where mergeable, otherwise the preferred side atomically.
func (m *smartMerger) emitSignatureAnchor(a *anchor) {
	templateStmt := m.template.Statements[a.templateStmt]
	destStmt := m.destination.Statements[a.destStmt]
	templateNode, destNode := templateStmt.Node, destStmt.Node

	// A frozen destination node always wins, regardless of preference
	if destNode != nil && destNode.FrozenOn(m.config.FreezeToken) {
		for line := a.destination.start; line <= a.destination.end; line++ {
			m.buffer.appendDestination(m.destination.Line(line), DecisionFreezeBlock, line)
		}
		return
	}

	if m.recursivelyMergeable(templateNode, destNode) {
		if m.emitRecursive(templateNode, destNode) {
			return
		}
	}

	preference := m.config.preferenceFor(templateNode, destNode)
	if preference == PreferTemplate {
		// Destination documentation survives when the template brings none
		if templateNode != nil && len(templateNode.LeadingComments) == 0 &&
			destNode != nil && len(destNode.LeadingComments) > 0 {
			for line := destNode.LeadStartLine(); line < destNode.StartLine; line++ {
				m.buffer.appendDestination(m.destination.Line(line), DecisionReplaced, line)
			}
			for line := templateNode.StartLine; line <= templateNode.EndLine; line++ {
				m.buffer.appendTemplate(m.template.Line(line), DecisionReplaced, line)
			}
			return
		}
		for line := a.template.start; line <= a.template.end; line++ {
			m.buffer.appendTemplate(m.template.Line(line), DecisionReplaced, line)
		}
		return
	}
	for line := a.destination.start; line <= a.destination.end; line++ {
		m.buffer.appendDestination(m.destination.Line(line), DecisionReplaced, line)
	}
}

// recursivelyMergeable decides whether a matched pair's bodies are merged by
// a child pass instead of being replaced atomically
func (m *smartMerger) recursivelyMergeable(template, destination *model.Node) bool {
	if template == nil || destination == nil {
		return false
	}
	if m.config.MaxRecursionDepth >= 0 && m.depth >= m.config.MaxRecursionDepth {
		return false
	}
	if template.Kind != destination.Kind || !template.IsCompound() {
		return false
	}
	if len(template.Body) == 0 || len(destination.Body) == 0 {
		return false
	}
	// A one-line compound has no body lines to splice between its opening
	// and closing lines.
	if template.OpeningLine >= template.EndLine || destination.OpeningLine >= destination.EndLine {
		return false
	}
	if template.Kind == model.KindCall {
		// Block bodies recurse only when both sides hold structure worth
		// matching, not a bare expression list.
		return hasMergeableStatement(template.Body) && hasMergeableStatement(destination.Body)
	}
	return true
}

func hasMergeableStatement(body []*model.Node) bool {
	for _, statement := range body {
		if statement.IsMergeable() {
			return true
		}
	}
	return false
}

// emitRecursive runs a child merge over the pair's body text and splices the
// result between the preferred side's opening and closing lines. Returns
// false when the child merge fails, leaving the caller to fall back to
// atomic replacement.
func (m *smartMerger) emitRecursive(template, destination *model.Node) bool {
	templateBody := m.template.Buffer.Slice(template.OpeningLine+1, lastBodyLine(template))
	destinationBody := m.destination.Buffer.Slice(destination.OpeningLine+1, lastBodyLine(destination))

	child, err := mergeSources(templateBody, destinationBody, m.config, m.depth+1)
	if err != nil {
		return false
	}

	preference := m.config.preferenceFor(template, destination)

	// Leading comments: the template's under template preference when it has
	// any; the destination's otherwise.
	if preference == PreferTemplate && len(template.LeadingComments) > 0 {
		for line := template.LeadStartLine(); line < template.StartLine; line++ {
			m.buffer.appendTemplate(m.template.Line(line), DecisionKeptTemplate, line)
		}
	} else {
		for line := destination.LeadStartLine(); line < destination.StartLine; line++ {
			m.buffer.appendDestination(m.destination.Line(line), DecisionKeptDestination, line)
		}
	}

	// Opening line(s) from the preferred side keep exact header syntax
	if preference == PreferTemplate {
		for line := template.StartLine; line <= template.OpeningLine; line++ {
			m.buffer.appendTemplate(m.template.Line(line), DecisionKeptTemplate, line)
		}
	} else {
		for line := destination.StartLine; line <= destination.OpeningLine; line++ {
			m.buffer.appendDestination(m.destination.Line(line), DecisionKeptDestination, line)
		}
	}

	childLines := strings.Split(strings.TrimSuffix(child.Content, "\n"), "\n")
	for i, record := range child.Provenance {
		if i < len(childLines) {
			m.buffer.appendSynthetic(childLines[i], record.Decision)
		}
	}

	if preference == PreferTemplate {
		m.buffer.appendTemplate(m.template.Line(template.EndLine), DecisionKeptTemplate, template.EndLine)
	} else {
		m.buffer.appendDestination(m.destination.Line(destination.EndLine), DecisionKeptDestination, destination.EndLine)
	}
	return true
}

// lastBodyLine returns the end line of the node's last body statement,
// never reaching the closing line
func lastBodyLine(node *model.Node) int {
	last := node.OpeningLine
	for _, statement := range node.Body {
		if statement.EndLine > last {
			last = statement.EndLine
		}
	}
	if last >= node.EndLine {
		last = node.EndLine - 1
	}
	return last
}
