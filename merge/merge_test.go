package merge_test

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/structmerge/merge"
	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/refine"
)

// assertContent compares merged output against the expectation and prints a
// unified diff on mismatch
func assertContent(t *testing.T, expected, actual string) {
	t.Helper()
	if expected == actual {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	t.Errorf("merged content mismatch:\n%s", diff)
}

func TestMerge_IdenticalInputs(t *testing.T) {
	source := "VERSION = \"1.0.0\"\n\ndef greet(name)\n  puts name\nend\n"
	result, err := merge.Merge(source, source)
	require.NoError(t, err)
	assertContent(t, source, result.Content)
	assert.Equal(t, 5, result.Stats[merge.DecisionKeptTemplate])
}

func TestMerge_VersionBump(t *testing.T) {
	// Template constants win while destination-only methods survive
	template := `VERSION = "2.0.0"

def greet(n)
  puts "Hello, #{n}"
end
`
	destination := `VERSION = "1.0.0"

def greet(n)
  puts "Hello, #{n}"
end

def custom
end
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate),
		merge.WithAddTemplateOnlyNodes(true))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "VERSION = \"2.0.0\"")
	assert.NotContains(t, result.Content, "VERSION = \"1.0.0\"")
	assert.Contains(t, result.Content, "def custom")
	assert.Contains(t, result.Content, "def greet(n)")
}

func TestMerge_FreezeWinsOverTemplate(t *testing.T) {
	template := "CONFIG = {}\n"
	destination := `# prism-merge:freeze
CONFIG = {key: "secret"}
# prism-merge:unfreeze
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)

	assertContent(t, destination, result.Content)
	assert.NotContains(t, result.Content, "CONFIG = {}")
	assert.Equal(t, 3, result.Stats[merge.DecisionFreezeBlock])
}

func TestMerge_RecursiveClassMerge(t *testing.T) {
	template := `class C
  def a
    "T"
  end
end
`
	destination := `class C
  def a
    "T"
  end

  def b
    "D"
  end
end
`
	result, err := merge.Merge(template, destination)
	require.NoError(t, err)
	assertContent(t, destination, result.Content)
}

func TestMerge_RecursiveClassMerge_TemplateAddsMethod(t *testing.T) {
	template := `class C
  def a
    "T2"
  end

  def fresh
    "new"
  end
end
`
	destination := `class C
  def a
    "T"
  end
end
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate),
		merge.WithAddTemplateOnlyNodes(true))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "\"T2\"")
	assert.NotContains(t, result.Content, "\"T\"\n")
	assert.Contains(t, result.Content, "def fresh")
}

func TestMerge_FrozenNodeResistsBump(t *testing.T) {
	template := `def m
  "T"
end
`
	destination := `# prism-merge:freeze
def m
  "D"
end
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "\"D\"")
	assert.NotContains(t, result.Content, "\"T\"")
}

func TestMerge_AssignmentSignatureIgnoresValue(t *testing.T) {
	template := "CONST_B = {key: \"template\"}\n"
	destination := "CONST_B = {key: \"dest\", extra: \"value\"}\n"

	templateWins, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)
	assertContent(t, template, templateWins.Content)

	destinationWins, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferDestination))
	require.NoError(t, err)
	assertContent(t, destination, destinationWins.Content)
}

func TestMerge_MethodRefinerPairsRenames(t *testing.T) {
	template := `def process_user(u)
end

def find_user_by_email(e)
end
`
	destination := `def process_users(us)
end

def find_by_email(e)
end
`
	result, err := merge.Merge(template, destination,
		merge.WithMatchRefiners(refine.NewMethodMatchRefiner()))
	require.NoError(t, err)

	assertContent(t, destination, result.Content)

	// Without the refiner the template methods are unmatched and the
	// destination pair is appended, duplicating nothing but matching nothing.
	bare, err := merge.Merge(template, destination)
	require.NoError(t, err)
	assert.NotEqual(t, result.Stats, bare.Stats)
}

func TestMerge_TemplateOnlyNodesSkippedByDefault(t *testing.T) {
	template := `A = 1

# helper docs
def helper
end
`
	destination := "A = 1\n"
	result, err := merge.Merge(template, destination)
	require.NoError(t, err)

	assert.NotContains(t, result.Content, "def helper")
	assert.NotContains(t, result.Content, "# helper docs")
}

func TestMerge_DestinationOnlyNodesAppended(t *testing.T) {
	template := "A = 1\n"
	destination := `A = 2

def extra
  :kept
end
`
	result, err := merge.Merge(template, destination)
	require.NoError(t, err)
	assertContent(t, destination, result.Content)
	assert.Positive(t, result.Stats[merge.DecisionReplaced])
}

func TestMerge_ParseErrors(t *testing.T) {
	valid := "A = 1\n"
	broken := "class Broken\n"

	_, err := merge.Merge(broken, valid)
	var templateErr *merge.TemplateParseError
	require.ErrorAs(t, err, &templateErr)
	assert.NotEmpty(t, templateErr.Diagnostics)

	_, err = merge.Merge(valid, broken)
	var destinationErr *merge.DestinationParseError
	require.ErrorAs(t, err, &destinationErr)
}

func TestMerge_InvalidFreezeStructure(t *testing.T) {
	valid := "A = 1\n"
	malformed := "A = 1\n# prism-merge:unfreeze\n"

	_, err := merge.Merge(valid, malformed)
	var structural *analysis.InvalidFreezeStructureError
	require.ErrorAs(t, err, &structural)
}

func TestMerge_CustomFreezeToken(t *testing.T) {
	template := "CONFIG = {}\n"
	destination := `# keepme:freeze
CONFIG = {key: "mine"}
# keepme:unfreeze
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate),
		merge.WithFreezeToken("keepme"))
	require.NoError(t, err)
	assertContent(t, destination, result.Content)

	// With the default token the markers are plain comments and the template
	// constant wins.
	bumped, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)
	assert.Contains(t, bumped.Content, "CONFIG = {}")
}

func TestMerge_RecursionDepthZeroDisablesBodyMerge(t *testing.T) {
	template := `class C
  def a
    "T"
  end
end
`
	destination := `class C
  def a
    "T"
  end

  def b
    "D"
  end
end
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate),
		merge.WithMaxRecursionDepth(0))
	require.NoError(t, err)

	// The class resolves atomically to the template side
	assert.NotContains(t, result.Content, "def b")
}

func TestMerge_TypePreferences(t *testing.T) {
	template := "VERSION = \"2.0.0\"\nNAME = \"template\"\n"
	destination := "VERSION = \"1.0.0\"\nNAME = \"mine\"\n"

	typing := map[model.Kind]model.NodeTransform{
		model.KindConstantAssign: func(node *model.Node) *model.Node {
			if node.Name == "VERSION" {
				node.MergeType = "version"
			}
			return node
		},
	}

	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferDestination),
		merge.WithNodeTyping(typing),
		merge.WithTypePreferences(map[string]merge.Preference{"version": merge.PreferTemplate}))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "VERSION = \"2.0.0\"")
	assert.Contains(t, result.Content, "NAME = \"mine\"")
}

func TestMerge_LeadingCommentAsymmetry(t *testing.T) {
	// Destination documentation survives a template bump when the template
	// brings no comments of its own
	template := "TIMEOUT = 30\n"
	destination := `# tuned for slow CI workers
TIMEOUT = 120
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "# tuned for slow CI workers")
	assert.Contains(t, result.Content, "TIMEOUT = 30")
	assert.NotContains(t, result.Content, "TIMEOUT = 120")
}

func TestMerge_Idempotence(t *testing.T) {
	template := `VERSION = "2.0.0"

class Widget
  def run
    "template"
  end
end
`
	destination := `VERSION = "1.0.0"

class Widget
  def run
    "mine"
  end

  def extra
  end
end

# prism-merge:freeze
LOCAL = true
# prism-merge:unfreeze
`
	optionSets := map[string][]merge.Option{
		"defaults":        nil,
		"template wins":   {merge.WithPreference(merge.PreferTemplate)},
		"template + adds": {merge.WithPreference(merge.PreferTemplate), merge.WithAddTemplateOnlyNodes(true)},
	}

	for name, options := range optionSets {
		t.Run(name, func(t *testing.T) {
			once, err := merge.Merge(template, destination, options...)
			require.NoError(t, err)
			twice, err := merge.Merge(template, once.Content, options...)
			require.NoError(t, err)
			assertContent(t, once.Content, twice.Content)
		})
	}
}

func TestMerge_FreezeRegionPreservedVerbatim(t *testing.T) {
	template := `A = 1
B = 2
`
	destination := `A = 1

# prism-merge:freeze
B = 99 # pinned
# prism-merge:unfreeze
`
	result, err := merge.Merge(template, destination,
		merge.WithPreference(merge.PreferTemplate))
	require.NoError(t, err)

	assert.Contains(t, result.Content, "# prism-merge:freeze\nB = 99 # pinned\n# prism-merge:unfreeze")
	assert.Equal(t, 1, strings.Count(result.Content, "# prism-merge:freeze"))
}

func TestMerge_NoSpuriousBlankRuns(t *testing.T) {
	template := `A = 1


B = 2
`
	destination := `A = 1



C = 3
`
	result, err := merge.Merge(template, destination, merge.WithAddTemplateOnlyNodes(true))
	require.NoError(t, err)
	assert.NotContains(t, result.Content, "\n\n\n\n")
}

func TestMerge_DecisionAccounting(t *testing.T) {
	template := `VERSION = "2.0.0"

def greet(n)
end
`
	destination := `VERSION = "1.0.0"

def greet(n)
end

def custom
end
`
	result, err := merge.Merge(template, destination)
	require.NoError(t, err)

	total := 0
	for _, count := range result.Stats {
		total += count
	}
	lineCount := strings.Count(result.Content, "\n")
	assert.Equal(t, lineCount, total)
	assert.Len(t, result.Provenance, total)
}

func TestMerge_ProvenanceSingleOrigin(t *testing.T) {
	template := "A = 1\nB = 2\n"
	destination := "A = 1\nB = 3\nC = 4\n"

	result, err := merge.Merge(template, destination)
	require.NoError(t, err)

	for _, record := range result.Provenance {
		both := record.TemplateLine > 0 && record.DestLine > 0
		assert.False(t, both, "line %d carries both origins", record.Line)
	}

	decision, ok := result.DecisionAt(1)
	require.True(t, ok)
	assert.Equal(t, merge.DecisionReplaced, decision)
	_, ok = result.DecisionAt(len(result.Provenance) + 1)
	assert.False(t, ok)
}

func TestMerge_SignatureDeterminism(t *testing.T) {
	source := `class Widget
  def run(fast, slow)
  end
end

task :default do
  puts "x"
end
`
	first, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)
	second, err := analysis.Analyze([]byte(source), nil)
	require.NoError(t, err)

	require.Equal(t, len(first.Statements), len(second.Statements))
	for i := range first.Statements {
		assert.True(t, first.Statements[i].Signature.Equal(second.Statements[i].Signature))
	}
}

func TestMerge_ExactLineAnchorsKeepUncoveredLines(t *testing.T) {
	// The require line is a call matched by signature; the trailing comment
	// block follows no statement, so it pairs by exact line content.
	template := `require "rake"

# shared footer
# do not edit below
`
	destination := `require "rake"

DEBUG = true

# shared footer
# do not edit below
`
	result, err := merge.Merge(template, destination)
	require.NoError(t, err)
	assertContent(t, destination, result.Content)
}
