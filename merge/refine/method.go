package refine

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/viant/structmerge/merge/model"
)

// Default weights and threshold for method similarity
const (
	DefaultNameWeight   = 0.7
	DefaultParamsWeight = 0.3
	DefaultThreshold    = 0.5
)

// MethodMatchRefiner pairs residual methods by name and parameter-list
// similarity, catching renames that exact signatures miss.
type MethodMatchRefiner struct {
	NameWeight   float64
	ParamsWeight float64
	Threshold    float64
}

// NewMethodMatchRefiner creates a refiner with the default weights
func NewMethodMatchRefiner() *MethodMatchRefiner {
	return &MethodMatchRefiner{
		NameWeight:   DefaultNameWeight,
		ParamsWeight: DefaultParamsWeight,
		Threshold:    DefaultThreshold,
	}
}

type candidate struct {
	templateIndex    int
	destinationIndex int
	score            float64
}

// Refine computes pairwise similarity over method nodes only and consumes
// pairings greedily in descending similarity order.
func (r *MethodMatchRefiner) Refine(template []*model.Node, destination []*model.Node, ctx *Context) []Pairing {
	var candidates []candidate
	for ti, tmpl := range template {
		if tmpl.Kind != model.KindMethod {
			continue
		}
		for di, dest := range destination {
			if dest.Kind != model.KindMethod {
				continue
			}
			score := r.NameWeight*nameSimilarity(tmpl.Name, dest.Name) +
				r.ParamsWeight*parameterSimilarity(tmpl.Params, dest.Params)
			if score < r.Threshold {
				continue
			}
			candidates = append(candidates, candidate{
				templateIndex:    ti,
				destinationIndex: di,
				score:            score,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].templateIndex != candidates[j].templateIndex {
			return candidates[i].templateIndex < candidates[j].templateIndex
		}
		return candidates[i].destinationIndex < candidates[j].destinationIndex
	})

	var pairings []Pairing
	usedTemplate := make(map[int]bool)
	usedDestination := make(map[int]bool)
	for _, cand := range candidates {
		if usedTemplate[cand.templateIndex] || usedDestination[cand.destinationIndex] {
			continue
		}
		usedTemplate[cand.templateIndex] = true
		usedDestination[cand.destinationIndex] = true
		pairings = append(pairings, Pairing{
			TemplateIndex:    cand.templateIndex,
			DestinationIndex: cand.destinationIndex,
		})
	}
	return pairings
}

// nameSimilarity is 1 - levenshtein / max(len), over method names
func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// parameterSimilarity blends name-set overlap (0.7) with count ratio (0.3)
func parameterSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	union := make(map[string]bool)
	setA := make(map[string]bool, len(a))
	for _, name := range a {
		setA[name] = true
		union[name] = true
	}
	shared := 0
	for _, name := range b {
		if setA[name] {
			shared++
		}
		union[name] = true
	}
	overlap := 0.0
	if len(union) > 0 {
		overlap = float64(shared) / float64(len(union))
	}

	smaller, larger := len(a), len(b)
	if smaller > larger {
		smaller, larger = larger, smaller
	}
	ratio := 0.0
	if larger > 0 {
		ratio = float64(smaller) / float64(larger)
	}
	return 0.7*overlap + 0.3*ratio
}
