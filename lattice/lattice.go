// Package lattice implements LatticeGraph (spec.md §4.5): for every
// (end, reading) pair the Segmenter found, materialise every candidate
// WordNode -- system dictionary surfaces, user dictionary surfaces,
// hiragana/katakana fallbacks, and dynamic-marker nodes -- grouped by
// end position for the resolver's DP.
//
// Grounded on
// original_source/libakaza/src/graph/{word_node,graph_builder}.rs:
// word_node.rs fixes the BOS/EOS sentinel shape and the "surface/yomi"
// key convention (carried over as model.WordNode.Key); graph_builder.rs
// fixes the node-construction order per reading (system dict, user
// dict, hiragana fallback, katakana fallback if distinct, numeric
// marker) and the "seen" de-duplication per position.
package lattice

import (
	"regexp"
	"sort"

	"akaza/dictionary"
	"akaza/lm"
	"akaza/model"
	"akaza/segmenter"
	"akaza/userlearn"
)

var numericReading = regexp.MustCompile(`^[0-9]+$`)

// Graph is the built lattice: nodes grouped by end position, in the
// order Segmenter discovered their underlying readings.
type Graph struct {
	Nodes map[int][]model.WordNode
	N     int
}

// NodesEndingAt returns every WordNode ending at position e.
func (g *Graph) NodesEndingAt(e int) []model.WordNode {
	return g.Nodes[e]
}

// SortedNodeEnds returns every end position with at least one node, in
// ascending order -- the iteration order the resolver's forward pass
// needs.
func (g *Graph) SortedNodeEnds() []int {
	ends := make([]int, 0, len(g.Nodes))
	for e := range g.Nodes {
		ends = append(ends, e)
	}
	sort.Ints(ends)
	return ends
}

// Build constructs a Graph from a Segmenter result, the merged
// dictionary stack (for surface lookup; already consulted once by the
// segmenter for reading discovery, consulted again here for surfaces)
// and the user learning store, whose dictionary overlay tags FromUser
// and whose learned unigram costs override the system language model's
// per-node cost when the surface/reading key is known, per spec.md
// §4.8's "user cost if the key exists there, otherwise the system cost"
// contract.
func Build(seg *segmenter.Result, dict *dictionary.Merged, user *userlearn.Store, languageModel *lm.LanguageModel) *Graph {
	g := &Graph{Nodes: map[int][]model.WordNode{}, N: seg.N}

	g.Nodes[0] = []model.WordNode{model.NewBOS()}

	for _, end := range seg.SortedEnds() {
		if end == 0 {
			continue
		}
		for _, reading := range seg.ReadingsEndingAt(end) {
			if reading.Text == "" {
				continue // EOS sentinel handled separately below
			}
			g.addNodesForReading(reading, dict, user, languageModel)
		}
	}

	eos := model.NewEOS(seg.N)
	g.Nodes[seg.N] = append(g.Nodes[seg.N], eos)

	return g
}

func (g *Graph) addNodesForReading(reading segmenter.Reading, dict *dictionary.Merged, user *userlearn.Store, languageModel *lm.LanguageModel) {
	start, end, r := reading.Start, reading.End, reading.Text
	seen := map[string]bool{}

	addSurface := func(surface string, fromUser bool) {
		if surface == "" || seen[surface] {
			return
		}
		seen[surface] = true
		cost, id, _ := languageModel.WordCost(surface, r)
		if user != nil {
			if uc, uknown := user.UnigramCost(surface + "/" + r); uknown {
				cost = uc
			}
		}
		g.Nodes[end] = append(g.Nodes[end], model.WordNode{
			Start: start, End: end,
			Surface: surface, Reading: r,
			WordID: id, UnigramCost: cost,
			FromUser: fromUser,
		})
	}

	if dict != nil {
		for _, surface := range dict.Lookup(r) {
			addSurface(surface, false)
		}
	}
	if user != nil {
		for _, surface := range user.Dictionary().Lookup(r) {
			addSurface(surface, true)
		}
	}

	addSurface(r, false) // hiragana fallback

	kata := segmenter.ToKatakana(r)
	if kata != r {
		addSurface(kata, false)
	}

	if numericReading.MatchString(r) {
		markerSurface := model.MarkerSurface(model.MarkerNumberKansuji)
		if !seen[markerSurface] {
			seen[markerSurface] = true
			g.Nodes[end] = append(g.Nodes[end], model.WordNode{
				Start: start, End: end,
				Surface: markerSurface, Reading: r,
				WordID:      model.NumID,
				UnigramCost: languageModel.UnknownWordCost(false),
				Marker:      model.MarkerNumberKansuji,
			})
		}
	}
}
