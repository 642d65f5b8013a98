// Package analysis builds the per-file view the merge engine works on: the
// parsed top-level statement sequence interleaved with freeze regions, with
// comments attached and a signature computed for every statement.
package analysis

import (
	"sort"

	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/ruby"
)

// Options configures file analysis
type Options struct {
	// FreezeToken is the marker keyword; regions use "# <token>:freeze" and
	// "# <token>:unfreeze" comments.
	FreezeToken string

	// SignatureGenerator optionally customizes signature derivation with the
	// fallthrough contract.
	SignatureGenerator model.SignatureGenerator

	// NodeTyping maps node kinds to transforms that may tag a node with a
	// merge type or substitute it before signature derivation.
	NodeTyping map[model.Kind]model.NodeTransform
}

// DefaultFreezeToken is the marker keyword used when none is configured
const DefaultFreezeToken = "prism-merge"

// Statement is one entry of the analyzed top-level sequence: either a parsed
// node or a freeze region pseudo-node, with its signature.
type Statement struct {
	Node      *model.Node
	Region    *model.FreezeRegion
	Signature model.Signature
}

// IsRegion reports whether the statement is a freeze region
func (s *Statement) IsRegion() bool {
	return s.Region != nil
}

// StartLine returns the first line of the statement proper
func (s *Statement) StartLine() int {
	if s.Region != nil {
		return s.Region.StartLine
	}
	return s.Node.StartLine
}

// EndLine returns the last line of the statement
func (s *Statement) EndLine() int {
	if s.Region != nil {
		return s.Region.EndLine
	}
	return s.Node.EndLine
}

// LeadStartLine returns the start line extended over leading comments
func (s *Statement) LeadStartLine() int {
	if s.Region != nil {
		return s.Region.StartLine
	}
	return s.Node.LeadStartLine()
}

// FileAnalysis owns a source buffer and its analyzed statement sequence
type FileAnalysis struct {
	Buffer      *model.SourceBuffer
	Valid       bool
	Diagnostics []ruby.Diagnostic

	// Statements is the top-level sequence with freeze regions interleaved,
	// sorted by start line. Statements fully inside a region are carried by
	// the region, not the outer sequence.
	Statements []*Statement

	// Regions are the top-level freeze regions, in source order
	Regions []*model.FreezeRegion

	// Comments are all comments in source order
	Comments []*model.Comment

	FreezeToken string
}

// Analyze parses the source and builds the analyzed view. A syntax error in
// the source yields an analysis with Valid == false; a malformed freeze
// structure yields an *InvalidFreezeStructureError.
func Analyze(src []byte, options *Options) (*FileAnalysis, error) {
	if options == nil {
		options = &Options{}
	}
	token := options.FreezeToken
	if token == "" {
		token = DefaultFreezeToken
	}

	parsed, err := ruby.NewParser().ParseSource(src)
	if err != nil {
		return nil, err
	}

	result := &FileAnalysis{
		Buffer:      parsed.Buffer,
		Valid:       parsed.Valid,
		Diagnostics: parsed.Diagnostics,
		Comments:    parsed.Comments,
		FreezeToken: token,
	}
	if !result.Valid {
		return result, nil
	}

	ruby.AttachComments(parsed.Statements, parsed.Comments, parsed.Buffer)

	regions, err := scanFreezeRegions(parsed, token)
	if err != nil {
		return nil, err
	}

	topLevel := regions.topLevel()
	result.Regions = topLevel

	contained := make(map[*model.Node]bool)
	for _, region := range topLevel {
		for _, node := range region.Nodes {
			contained[node] = true
		}
	}

	for _, node := range parsed.Statements {
		if contained[node] {
			continue
		}
		result.Statements = append(result.Statements, &Statement{Node: node})
	}
	for _, region := range topLevel {
		result.Statements = append(result.Statements, &Statement{Region: region})
	}
	sort.SliceStable(result.Statements, func(i, j int) bool {
		return result.Statements[i].StartLine() < result.Statements[j].StartLine()
	})

	for _, statement := range result.Statements {
		statement.Signature = result.deriveSignature(statement, options)
	}

	return result, nil
}

// deriveSignature resolves one statement's signature, honoring node typing
// transforms and the custom generator's fallthrough contract
func (a *FileAnalysis) deriveSignature(statement *Statement, options *Options) model.Signature {
	if statement.Region != nil {
		return statement.Region.Signature(a.Buffer)
	}
	node := statement.Node
	if options.NodeTyping != nil {
		if transform, ok := options.NodeTyping[node.Kind]; ok && transform != nil {
			if substitute := transform(node); substitute != nil {
				node = substitute
				statement.Node = substitute
			}
		}
	}
	return model.DeriveSignature(node, options.SignatureGenerator)
}

// Line returns the raw text of the 1-based line n
func (a *FileAnalysis) Line(n int) string {
	return a.Buffer.Line(n)
}

// NormalizedLine returns the stripped text of the 1-based line n
func (a *FileAnalysis) NormalizedLine(n int) string {
	return a.Buffer.NormalizedLine(n)
}

// InFreezeRegion reports whether the line falls inside any top-level region
func (a *FileAnalysis) InFreezeRegion(line int) bool {
	for _, region := range a.Regions {
		if region.Contains(line) {
			return true
		}
	}
	return false
}

// StatementsIn returns the statements whose full span, leading comments
// included, overlaps the inclusive line range
func (a *FileAnalysis) StatementsIn(start, end int) []*Statement {
	var result []*Statement
	for _, statement := range a.Statements {
		if statement.EndLine() < start || statement.LeadStartLine() > end {
			continue
		}
		result = append(result, statement)
	}
	return result
}
