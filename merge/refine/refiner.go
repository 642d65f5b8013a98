// Package refine provides post-signature fuzzy pairing of residual unmatched
// nodes, such as methods renamed between template and destination.
package refine

import (
	"github.com/viant/structmerge/merge/model"
)

// Pairing matches one residual template node to one residual destination
// node; indexes refer to the slices passed to Refine.
type Pairing struct {
	TemplateIndex    int
	DestinationIndex int
}

// Context carries the source buffers of the merge in progress
type Context struct {
	TemplateBuffer    *model.SourceBuffer
	DestinationBuffer *model.SourceBuffer
}

// Refiner pairs residual unmatched nodes after exact signature matching.
// Pairings produced by earlier refiners shadow later ones.
type Refiner interface {
	Refine(template []*model.Node, destination []*model.Node, ctx *Context) []Pairing
}

// Apply runs the refiners in order and folds their pairings into a single
// template-index to destination-index map; earlier pairings win, and each
// destination node is consumed at most once.
func Apply(refiners []Refiner, template []*model.Node, destination []*model.Node, ctx *Context) map[int]int {
	result := make(map[int]int)
	usedDest := make(map[int]bool)
	for _, refiner := range refiners {
		if refiner == nil {
			continue
		}
		for _, pairing := range refiner.Refine(template, destination, ctx) {
			if pairing.TemplateIndex < 0 || pairing.TemplateIndex >= len(template) {
				continue
			}
			if pairing.DestinationIndex < 0 || pairing.DestinationIndex >= len(destination) {
				continue
			}
			if _, taken := result[pairing.TemplateIndex]; taken {
				continue
			}
			if usedDest[pairing.DestinationIndex] {
				continue
			}
			result[pairing.TemplateIndex] = pairing.DestinationIndex
			usedDest[pairing.DestinationIndex] = true
		}
	}
	return result
}
