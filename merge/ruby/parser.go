package ruby

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/viant/structmerge/merge/model"
)

// Diagnostic describes a parse problem reported by the grammar
type Diagnostic struct {
	Message   string
	StartLine int
	EndLine   int
}

// ParseResult is the parsed view of a single Ruby source: the top-level
// statement sequence, every comment in source order, and parse validity.
type ParseResult struct {
	Valid       bool
	Diagnostics []Diagnostic
	Statements  []*model.Node
	Comments    []*model.Comment
	Buffer      *model.SourceBuffer
}

// Parser parses Ruby source into the merge data model
type Parser struct {
	source []byte
}

// NewParser creates a new Ruby parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseSource parses Ruby source code from a byte slice and extracts the
// top-level statements and comments
func (p *Parser) ParseSource(src []byte) (*ParseResult, error) {
	p.source = src

	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	rootNode := tree.RootNode()

	result := &ParseResult{
		Valid:  !rootNode.HasError(),
		Buffer: model.NewSourceBuffer(src),
	}
	if !result.Valid {
		result.Diagnostics = collectDiagnostics(rootNode)
	}

	result.Comments = collectComments(rootNode, src)

	for i := 0; i < int(rootNode.NamedChildCount()); i++ {
		child := rootNode.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if node := p.convertNode(child); node != nil {
			result.Statements = append(result.Statements, node)
		}
	}

	return result, nil
}

// collectComments walks the full tree and gathers every comment in source order
func collectComments(root *sitter.Node, src []byte) []*model.Comment {
	var comments []*model.Comment
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == "comment" {
			comments = append(comments, &model.Comment{
				Text:      node.Content(src),
				Line:      int(node.StartPoint().Row) + 1,
				StartByte: int(node.StartByte()),
			})
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return comments
}

// collectDiagnostics gathers error node ranges for parse failure reporting
func collectDiagnostics(root *sitter.Node) []Diagnostic {
	var diagnostics []Diagnostic
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == "ERROR" || node.IsMissing() {
			message := "syntax error"
			if node.IsMissing() {
				message = "missing " + node.Type()
			}
			diagnostics = append(diagnostics, Diagnostic{
				Message:   message,
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			})
			return
		}
		if !node.HasError() {
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return diagnostics
}
