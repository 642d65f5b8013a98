package refine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/refine"
)

func method(name string, params ...string) *model.Node {
	return &model.Node{Kind: model.KindMethod, Name: name, Params: params}
}

func TestMethodMatchRefiner_PairsRenames(t *testing.T) {
	template := []*model.Node{
		method("process_user", "u"),
		method("find_user_by_email", "e"),
	}
	destination := []*model.Node{
		method("process_users", "us"),
		method("find_by_email", "e"),
	}

	refiner := refine.NewMethodMatchRefiner()
	pairings := refiner.Refine(template, destination, &refine.Context{})

	require.Len(t, pairings, 2)
	paired := map[int]int{}
	for _, pairing := range pairings {
		paired[pairing.TemplateIndex] = pairing.DestinationIndex
	}
	assert.Equal(t, 0, paired[0])
	assert.Equal(t, 1, paired[1])
}

func TestMethodMatchRefiner_ThresholdDiscards(t *testing.T) {
	template := []*model.Node{method("configure", "options")}
	destination := []*model.Node{method("teardown", "io")}

	refiner := refine.NewMethodMatchRefiner()
	pairings := refiner.Refine(template, destination, &refine.Context{})
	assert.Empty(t, pairings)
}

func TestMethodMatchRefiner_GreedyConsumesEndpoints(t *testing.T) {
	// Both template methods resemble the single destination method; only the
	// closer one may consume it.
	template := []*model.Node{
		method("handle_event", "event"),
		method("handle_events", "event"),
	}
	destination := []*model.Node{
		method("handle_events", "event"),
	}

	refiner := refine.NewMethodMatchRefiner()
	pairings := refiner.Refine(template, destination, &refine.Context{})
	require.Len(t, pairings, 1)
	assert.Equal(t, 1, pairings[0].TemplateIndex)
	assert.Equal(t, 0, pairings[0].DestinationIndex)
}

func TestMethodMatchRefiner_IgnoresNonMethods(t *testing.T) {
	template := []*model.Node{{Kind: model.KindConstantAssign, Name: "VERSION"}}
	destination := []*model.Node{{Kind: model.KindConstantAssign, Name: "VERSION"}}

	refiner := refine.NewMethodMatchRefiner()
	assert.Empty(t, refiner.Refine(template, destination, &refine.Context{}))
}

func TestApply_EarlierRefinersShadowLater(t *testing.T) {
	template := []*model.Node{method("alpha"), method("beta")}
	destination := []*model.Node{method("alpha_new"), method("beta_new")}

	first := pairingsRefiner{{TemplateIndex: 0, DestinationIndex: 1}}
	second := pairingsRefiner{
		{TemplateIndex: 0, DestinationIndex: 0},
		{TemplateIndex: 1, DestinationIndex: 1},
	}

	result := refine.Apply([]refine.Refiner{first, second}, template, destination, &refine.Context{})
	assert.Equal(t, map[int]int{0: 1}, result)
}

func TestApply_AddingRefinerNeverReducesMatches(t *testing.T) {
	template := []*model.Node{method("process_user", "u")}
	destination := []*model.Node{method("process_users", "us")}

	without := refine.Apply(nil, template, destination, &refine.Context{})
	with := refine.Apply([]refine.Refiner{refine.NewMethodMatchRefiner()}, template, destination, &refine.Context{})
	assert.GreaterOrEqual(t, len(with), len(without))
}

// pairingsRefiner returns a fixed pairing list
type pairingsRefiner []refine.Pairing

func (r pairingsRefiner) Refine(template []*model.Node, destination []*model.Node, ctx *refine.Context) []refine.Pairing {
	return r
}
