package model

import (
	"regexp"
	"strings"
)

// CommentCategory classifies a comment for merge purposes
type CommentCategory int

const (
	// CategoryRegular is an ordinary comment
	CategoryRegular CommentCategory = iota
	// CategoryMagic is a Ruby magic directive comment
	CategoryMagic
	// CategoryFreezeMarker is a freeze or unfreeze marker comment
	CategoryFreezeMarker
)

// FreezeDirective is the action carried by a freeze marker comment
type FreezeDirective int

const (
	// DirectiveFreeze opens a freeze region
	DirectiveFreeze FreezeDirective = iota
	// DirectiveUnfreeze closes a freeze region
	DirectiveUnfreeze
)

// magicPatterns is the small fixed set of Ruby directive comments. Magic
// directives are not special-cased during merge; they ride as leading comments.
var magicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^frozen_string_literal:`),
	regexp.MustCompile(`(?i)^(en)?coding:`),
	regexp.MustCompile(`(?i)^warn_indent:`),
	regexp.MustCompile(`(?i)^shareable_constant_value:`),
	regexp.MustCompile(`(?i)^typed:`),
}

// Comment represents a single source comment with its position
type Comment struct {
	Text      string // Raw comment text including the leading '#'
	Line      int    // 1-based line number
	StartByte int    // Byte offset of the comment start
}

// body returns the comment content after the leading '#' run and whitespace
func (c *Comment) body() string {
	text := strings.TrimSpace(c.Text)
	for strings.HasPrefix(text, "#") {
		text = text[1:]
	}
	return strings.TrimSpace(text)
}

// Category classifies the comment lazily against the configured freeze token
func (c *Comment) Category(freezeToken string) CommentCategory {
	if _, ok := c.Directive(freezeToken); ok {
		return CategoryFreezeMarker
	}
	body := c.body()
	for _, pattern := range magicPatterns {
		if pattern.MatchString(body) {
			return CategoryMagic
		}
	}
	return CategoryRegular
}

// Directive returns the freeze directive carried by the comment, if any.
// The marker grammar is the comment body matching, case-insensitively,
// "<token>:freeze" or "<token>:unfreeze".
func (c *Comment) Directive(freezeToken string) (FreezeDirective, bool) {
	if freezeToken == "" {
		return 0, false
	}
	body := strings.ToLower(c.body())
	token := strings.ToLower(freezeToken)
	switch body {
	case token + ":freeze":
		return DirectiveFreeze, true
	case token + ":unfreeze":
		return DirectiveUnfreeze, true
	}
	return 0, false
}

// IsFreeze reports whether the comment is a freeze marker for the token
func (c *Comment) IsFreeze(freezeToken string) bool {
	directive, ok := c.Directive(freezeToken)
	return ok && directive == DirectiveFreeze
}

// IsUnfreeze reports whether the comment is an unfreeze marker for the token
func (c *Comment) IsUnfreeze(freezeToken string) bool {
	directive, ok := c.Directive(freezeToken)
	return ok && directive == DirectiveUnfreeze
}
