package ruby

import (
	"strings"

	"github.com/viant/structmerge/merge/model"
)

// AttachComments links comments to statements: a comment becomes a leading
// comment of the first statement that follows it with no intervening
// non-comment line, and a trailing comment of a statement that starts on the
// same line before it.
func AttachComments(statements []*model.Node, comments []*model.Comment, buffer *model.SourceBuffer) {
	commentByLine := make(map[int]*model.Comment, len(comments))
	for _, comment := range comments {
		// Only whole-line comments participate in leading attachment
		if strings.HasPrefix(buffer.NormalizedLine(comment.Line), "#") {
			commentByLine[comment.Line] = comment
		}
	}

	claimed := make(map[*model.Comment]bool)

	for _, statement := range statements {
		var leading []*model.Comment
		for line := statement.StartLine - 1; line >= 1; line-- {
			comment, ok := commentByLine[line]
			if !ok || claimed[comment] {
				break
			}
			claimed[comment] = true
			leading = append([]*model.Comment{comment}, leading...)
		}
		statement.LeadingComments = leading

		for _, comment := range comments {
			if comment.Line == statement.StartLine && comment.StartByte > statement.StartByte {
				statement.TrailingComments = append(statement.TrailingComments, comment)
			}
		}
	}
}
