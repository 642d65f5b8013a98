package analysis

import (
	"fmt"
	"strings"

	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/ruby"
)

// InvalidFreezeStructureError reports a malformed freeze region layout:
// unpaired markers, nested regions, or statements that straddle a region
// boundary.
type InvalidFreezeStructureError struct {
	Message   string
	StartLine int
	EndLine   int
	Nodes     []string
}

// Error implements the error interface
func (e *InvalidFreezeStructureError) Error() string {
	message := fmt.Sprintf("invalid freeze structure: %s (lines %d-%d)", e.Message, e.StartLine, e.EndLine)
	if len(e.Nodes) > 0 {
		message += ": " + strings.Join(e.Nodes, ", ")
	}
	return message
}

// regionSet is the scanned freeze regions of one file
type regionSet struct {
	regions []*model.FreezeRegion
}

// topLevel returns the regions not nested inside an encompassing statement
func (s *regionSet) topLevel() []*model.FreezeRegion {
	var result []*model.FreezeRegion
	for _, region := range s.regions {
		if !region.Nested {
			result = append(result, region)
		}
	}
	return result
}

// scanFreezeRegions walks all comments in source order, pairs freeze and
// unfreeze markers into regions, and validates the region structure against
// the top-level statements.
func scanFreezeRegions(parsed *ruby.ParseResult, token string) (*regionSet, error) {
	set := &regionSet{}
	var open *model.FreezeRegion

	for _, comment := range parsed.Comments {
		directive, ok := comment.Directive(token)
		if !ok {
			continue
		}
		switch directive {
		case model.DirectiveFreeze:
			if open != nil {
				return nil, &InvalidFreezeStructureError{
					Message:   "nested freeze marker",
					StartLine: open.StartLine,
					EndLine:   comment.Line,
				}
			}
			open = &model.FreezeRegion{
				StartLine:   comment.Line,
				StartMarker: parsed.Buffer.Line(comment.Line),
			}
		case model.DirectiveUnfreeze:
			if open == nil {
				return nil, &InvalidFreezeStructureError{
					Message:   "unfreeze marker without a matching freeze",
					StartLine: comment.Line,
					EndLine:   comment.Line,
				}
			}
			open.EndLine = comment.Line
			open.Explicit = true
			set.regions = append(set.regions, open)
			open = nil
		}
	}

	if open != nil {
		// An unpaired freeze is valid only at top level, where it extends to
		// the end of the file.
		if enclosing := enclosingStatement(parsed.Statements, open.StartLine); enclosing != nil {
			return nil, &InvalidFreezeStructureError{
				Message:   "unpaired freeze marker inside a statement",
				StartLine: open.StartLine,
				EndLine:   enclosing.EndLine,
				Nodes:     []string{nodeSummary(enclosing)},
			}
		}
		open.EndLine = parsed.Buffer.LineCount()
		set.regions = append(set.regions, open)
	}

	for _, region := range set.regions {
		if err := classifyRegion(region, parsed.Statements); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// classifyRegion assigns top-level statements to a region as contained or
// overlapping, and rejects partial overlaps. A statement that fully wraps the
// region is legal only for encompassing containers, whose bodies re-detect
// the region on recursion.
func classifyRegion(region *model.FreezeRegion, statements []*model.Node) error {
	for _, node := range statements {
		if node.EndLine < region.StartLine || node.StartLine > region.EndLine {
			continue
		}
		inside := node.StartLine >= region.StartLine && node.EndLine <= region.EndLine
		wraps := node.StartLine < region.StartLine && node.EndLine > region.EndLine
		switch {
		case inside:
			region.Nodes = append(region.Nodes, node)
		case wraps && node.IsEncompassing():
			region.Overlapping = append(region.Overlapping, node)
			region.Nested = true
		default:
			return &InvalidFreezeStructureError{
				Message:   "statement partially overlaps freeze region",
				StartLine: region.StartLine,
				EndLine:   region.EndLine,
				Nodes:     []string{nodeSummary(node)},
			}
		}
	}
	return nil
}

// enclosingStatement returns the first statement whose line range, start and
// end lines included, contains the line, if any
func enclosingStatement(statements []*model.Node, line int) *model.Node {
	for _, node := range statements {
		if node.StartLine <= line && line <= node.EndLine {
			return node
		}
	}
	return nil
}

func nodeSummary(node *model.Node) string {
	label := node.Kind.String()
	switch {
	case node.Name != "":
		label += " " + node.Name
	case node.ConstantPath != "":
		label += " " + node.ConstantPath
	}
	return fmt.Sprintf("%s (lines %d-%d)", label, node.StartLine, node.EndLine)
}
