package model

import (
	"strings"
)

// SourceBuffer holds immutable source text together with a 1-based line index.
// Every other entity refers to source by (startLine, endLine) ranges or byte
// offsets into this buffer.
type SourceBuffer struct {
	data  []byte
	lines []string
}

// NewSourceBuffer creates a source buffer from raw bytes
func NewSourceBuffer(data []byte) *SourceBuffer {
	if len(data) == 0 {
		return &SourceBuffer{}
	}
	text := string(data)
	lines := strings.Split(text, "\n")
	// A trailing newline produces an empty final element that is not a line
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	return &SourceBuffer{
		data:  data,
		lines: lines,
	}
}

// Bytes returns the underlying source bytes
func (b *SourceBuffer) Bytes() []byte {
	return b.data
}

// LineCount returns the number of lines in the buffer
func (b *SourceBuffer) LineCount() int {
	return len(b.lines)
}

// Line returns the raw text of the 1-based line n, without its trailing newline
func (b *SourceBuffer) Line(n int) string {
	if n < 1 || n > len(b.lines) {
		return ""
	}
	return b.lines[n-1]
}

// NormalizedLine returns the 1-based line n with surrounding whitespace stripped
func (b *SourceBuffer) NormalizedLine(n int) string {
	return strings.TrimSpace(b.Line(n))
}

// IsBlankLine reports whether the 1-based line n is empty or whitespace only
func (b *SourceBuffer) IsBlankLine(n int) bool {
	return b.NormalizedLine(n) == ""
}

// Lines returns the raw text of lines startLine..endLine inclusive
func (b *SourceBuffer) Lines(startLine, endLine int) []string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(b.lines) {
		endLine = len(b.lines)
	}
	if startLine > endLine {
		return nil
	}
	result := make([]string, 0, endLine-startLine+1)
	for i := startLine; i <= endLine; i++ {
		result = append(result, b.lines[i-1])
	}
	return result
}

// Slice returns lines startLine..endLine inclusive joined by newlines
func (b *SourceBuffer) Slice(startLine, endLine int) string {
	return strings.Join(b.Lines(startLine, endLine), "\n")
}

// AllLines returns every line of the buffer
func (b *SourceBuffer) AllLines() []string {
	return b.lines
}
