package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
)

func TestAnalyze_InterleavesFreezeRegions(t *testing.T) {
	source := `VERSION = "1.0.0"

# prism-merge:freeze
SECRET = "do not touch"
# prism-merge:unfreeze

def greet(name)
  puts name
end
`
	view, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)
	require.True(t, view.Valid)

	require.Len(t, view.Statements, 3)
	assert.False(t, view.Statements[0].IsRegion())
	assert.True(t, view.Statements[1].IsRegion())
	assert.False(t, view.Statements[2].IsRegion())

	region := view.Statements[1].Region
	assert.Equal(t, 3, region.StartLine)
	assert.Equal(t, 5, region.EndLine)
	assert.True(t, region.Explicit)
	require.Len(t, region.Nodes, 1)
	assert.Equal(t, "SECRET", region.Nodes[0].Name)

	assert.Equal(t, "freeze_node", view.Statements[1].Signature.Tag)
	assert.Equal(t, "const", view.Statements[0].Signature.Tag)
	assert.Equal(t, "def", view.Statements[2].Signature.Tag)

	assert.True(t, view.InFreezeRegion(4))
	assert.False(t, view.InFreezeRegion(7))
}

func TestAnalyze_UnpairedFreezeAtTopLevelExtendsToEOF(t *testing.T) {
	source := `CONFIG = {}

# prism-merge:freeze
def custom
end
`
	view, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)

	require.Len(t, view.Regions, 1)
	region := view.Regions[0]
	assert.Equal(t, 3, region.StartLine)
	assert.Equal(t, 5, region.EndLine)
	assert.False(t, region.Explicit)
}

func TestAnalyze_FreezeStructureErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "unpaired unfreeze",
			source: "CONFIG = {}\n# prism-merge:unfreeze\n",
		},
		{
			name: "nested freeze",
			source: `# prism-merge:freeze
A = 1
# prism-merge:freeze
B = 2
# prism-merge:unfreeze
# prism-merge:unfreeze
`,
		},
		{
			name: "unpaired freeze inside a statement",
			source: `def setup
  # prism-merge:freeze
  configure
end
`,
		},
		{
			name: "statement straddles the region boundary",
			source: `# prism-merge:freeze
if production?
  configure
# prism-merge:unfreeze
end
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := analysis.Analyze([]byte(tc.source), nil)
			require.Error(t, err)
			var structural *analysis.InvalidFreezeStructureError
			assert.ErrorAs(t, err, &structural)
		})
	}
}

func TestAnalyze_RegionInsideEncompassingContainerIsNested(t *testing.T) {
	source := `class Widget
  # prism-merge:freeze
  def custom
  end
  # prism-merge:unfreeze
end
`
	view, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)

	// The class body owns the region; the outer sequence sees only the class
	assert.Empty(t, view.Regions)
	require.Len(t, view.Statements, 1)
	assert.Equal(t, model.KindClass, view.Statements[0].Node.Kind)
}

func TestAnalyze_FrozenOnNode(t *testing.T) {
	source := `# prism-merge:freeze
CONFIG = {key: "mine"}

OTHER = 1
`
	view, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)

	// The unpaired freeze extends to EOF, so both nodes sit in the region
	require.Len(t, view.Regions, 1)
	require.Len(t, view.Statements, 1)
	require.True(t, view.Statements[0].IsRegion())

	config := view.Statements[0].Region.Nodes[0]
	assert.True(t, config.FrozenOn("prism-merge"))
	assert.False(t, config.FrozenOn("other-token"))
}

func TestAnalyze_NodeTypingAndSignatureGenerator(t *testing.T) {
	source := "VERSION = \"1.0.0\"\nNAME = \"widget\"\n"

	typing := map[model.Kind]model.NodeTransform{
		model.KindConstantAssign: func(node *model.Node) *model.Node {
			node.MergeType = "gem_constant"
			return node
		},
	}
	custom := model.NewSignature("pinned", "VERSION")
	generator := func(node *model.Node) model.SignatureOutcome {
		if node.Name == "VERSION" {
			return model.SignatureOutcome{Signature: &custom}
		}
		return model.SignatureOutcome{}
	}

	view, err := analysis.Analyze([]byte(source), &analysis.Options{
		NodeTyping:         typing,
		SignatureGenerator: generator,
	})
	require.NoError(t, err)
	require.Len(t, view.Statements, 2)

	assert.Equal(t, "gem_constant", view.Statements[0].Node.MergeType)
	assert.Equal(t, custom, view.Statements[0].Signature)
	// The second constant falls through to the default table
	assert.Equal(t, model.NewSignature("const", "NAME"), view.Statements[1].Signature)
}

func TestAnalyze_InvalidSourceIsReported(t *testing.T) {
	view, err := analysis.Analyze([]byte("class Broken\n"), nil)
	require.NoError(t, err)
	assert.False(t, view.Valid)
	assert.NotEmpty(t, view.Diagnostics)
}
