package merge

import (
	"fmt"

	"github.com/viant/structmerge/merge/ruby"
)

// TemplateParseError reports a syntax error in the template input
type TemplateParseError struct {
	Content     string
	Diagnostics []ruby.Diagnostic
}

// Error implements the error interface
func (e *TemplateParseError) Error() string {
	return fmt.Sprintf("template failed to parse: %s", formatDiagnostics(e.Diagnostics))
}

// DestinationParseError reports a syntax error in the destination input
type DestinationParseError struct {
	Content     string
	Diagnostics []ruby.Diagnostic
}

// Error implements the error interface
func (e *DestinationParseError) Error() string {
	return fmt.Sprintf("destination failed to parse: %s", formatDiagnostics(e.Diagnostics))
}

func formatDiagnostics(diagnostics []ruby.Diagnostic) string {
	if len(diagnostics) == 0 {
		return "syntax error"
	}
	first := diagnostics[0]
	message := fmt.Sprintf("%s at lines %d-%d", first.Message, first.StartLine, first.EndLine)
	if len(diagnostics) > 1 {
		message += fmt.Sprintf(" (+%d more)", len(diagnostics)-1)
	}
	return message
}
