package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceBuffer(t *testing.T) {
	buffer := NewSourceBuffer([]byte("first\n  second  \n\nfourth\n"))

	assert.Equal(t, 4, buffer.LineCount())
	assert.Equal(t, "first", buffer.Line(1))
	assert.Equal(t, "  second  ", buffer.Line(2))
	assert.Equal(t, "second", buffer.NormalizedLine(2))
	assert.True(t, buffer.IsBlankLine(3))
	assert.False(t, buffer.IsBlankLine(4))
	assert.Equal(t, "", buffer.Line(5))

	assert.Equal(t, "  second  \n\nfourth", buffer.Slice(2, 4))
	assert.Equal(t, []string{"first", "  second  "}, buffer.Lines(1, 2))
	assert.Nil(t, buffer.Lines(3, 2))
}

func TestSourceBuffer_NoTrailingNewline(t *testing.T) {
	buffer := NewSourceBuffer([]byte("only"))
	assert.Equal(t, 1, buffer.LineCount())
	assert.Equal(t, "only", buffer.Line(1))
}

func TestHash_Deterministic(t *testing.T) {
	first, err := Hash([]byte("CONFIG = {}"))
	assert.NoError(t, err)
	second, err := Hash([]byte("CONFIG = {}"))
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := Hash([]byte("CONFIG = []"))
	assert.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestFreezeRegion_Signature(t *testing.T) {
	buffer := NewSourceBuffer([]byte("# prism-merge:freeze\n  CONFIG = {key: \"secret\"}\n# prism-merge:unfreeze\n"))
	region := &FreezeRegion{StartLine: 1, EndLine: 3, StartMarker: "# prism-merge:freeze"}

	signature := region.Signature(buffer)
	assert.Equal(t, "freeze_node", signature.Tag)
	assert.Equal(t,
		"# prism-merge:freeze\nCONFIG = {key: \"secret\"}\n# prism-merge:unfreeze",
		signature.Fields[0])

	// Indentation-only differences collapse to the same identity
	shifted := NewSourceBuffer([]byte("  # prism-merge:freeze\nCONFIG = {key: \"secret\"}\n  # prism-merge:unfreeze\n"))
	shiftedRegion := &FreezeRegion{StartLine: 1, EndLine: 3, StartMarker: "  # prism-merge:freeze"}
	assert.True(t, signature.Equal(shiftedRegion.Signature(shifted)))
	assert.Equal(t, region.NormalizedStartMarker(), shiftedRegion.NormalizedStartMarker())
}
