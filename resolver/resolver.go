// Package resolver implements GraphResolver (spec.md §4.6): a k-best
// Viterbi search over a lattice.Graph. The forward pass keeps the k
// cheapest predecessor extensions at every node; the backward pass walks
// the chosen entries from EOS back to BOS to materialise distinct Path
// segmentations.
//
// Grounded on
// original_source/libakaza/src/graph/graph_resolver.rs: the KBestEntry
// shape (cost, prev_node, prev_rank) and the forward-extend/backward-walk
// control flow follow it directly. One deliberate divergence from the
// literal Rust source: spec.md §4.6 requires the forward pass to add
// skip_bigram_cost(mm.word_id, n.word_id) whenever the chosen predecessor
// entry itself has a predecessor mm, whereas graph_resolver.rs's forward
// KBestEntry only combines edge_cost and node_cost. spec.md is
// authoritative here (see DESIGN.md), so this package's forward pass
// includes the skip-bigram term the Rust reference's forward pass omits.
package resolver

import (
	"sort"

	"akaza/lattice"
	"akaza/lm"
	"akaza/model"
	"akaza/userlearn"
)

// entry is one ranked extension at a node: its total DP cost (equal
// weights per spec.md §4.6) plus the cost breakdown the ReRanker needs,
// and back-pointers to the chosen predecessor's (end, index, rank).
type entry struct {
	cost float32

	unigramCost        float32
	bigramCost         float32
	unknownBigramCost  float32
	skipBigramCost     float32
	unknownBigramCount uint32
	tokenCount         uint32

	surface string // accumulated surface, for the lexicographic tie-break

	hasPrev  bool
	prevEnd  int
	prevIdx  int
	prevRank int
}

// Resolve runs the k-best forward/backward DP over g and returns up to k
// distinct Path segmentations, cheapest first. user, if non-nil, is
// consulted for bigram edge costs before falling back to the system
// languageModel, per spec.md §4.8's "user cost if the key exists there,
// otherwise the system cost" contract.
func Resolve(g *lattice.Graph, languageModel *lm.LanguageModel, user *userlearn.Store, k int) []model.Path {
	if k <= 0 {
		k = 1
	}

	// kBest[end][idx] holds the ranked entries for g.Nodes[end][idx].
	kBest := map[int][][]entry{}
	kBest[0] = [][]entry{{{cost: 0, surface: ""}}}

	ends := g.SortedNodeEnds()
	for _, e := range ends {
		if e == 0 {
			continue
		}
		nodes := g.NodesEndingAt(e)
		kBest[e] = make([][]entry, len(nodes))
		for ni, n := range nodes {
			kBest[e][ni] = extendNode(g, kBest, n, languageModel, user, k)
		}
	}

	lastEnd := g.N
	eosNodes := g.NodesEndingAt(lastEnd)
	eosIdx := -1
	for i, n := range eosNodes {
		if n.WordID == model.EOSID {
			eosIdx = i
			break
		}
	}
	if eosIdx < 0 || eosIdx >= len(kBest[lastEnd]) {
		return nil
	}
	eosEntries := kBest[lastEnd][eosIdx]

	paths := make([]model.Path, 0, len(eosEntries))
	seenSurface := map[string]bool{}
	for rank := range eosEntries {
		path := materializePath(g, kBest, lastEnd, eosIdx, rank)
		surf := path.Surface()
		if seenSurface[surf] {
			continue
		}
		seenSurface[surf] = true
		paths = append(paths, path)
	}
	return paths
}

// extendNode computes the top-k ranked entries at node n, by combining
// every predecessor m's existing ranked entries with the m->n edge.
func extendNode(g *lattice.Graph, kBest map[int][][]entry, n model.WordNode, languageModel *lm.LanguageModel, user *userlearn.Store, k int) []entry {
	if n.WordID == model.BOSID {
		return []entry{{cost: 0, surface: ""}}
	}

	preds := g.NodesEndingAt(n.Start)
	var candidates []entry

	for mi, m := range preds {
		predEntries := kBest[n.Start][mi]
		bigramCost, known := languageModel.BigramCost(m.WordID, n.WordID)
		if user != nil {
			if uc, uknown := user.BigramCost(m.Key(), n.Key()); uknown {
				bigramCost, known = uc, true
			}
		}

		for rank, pe := range predEntries {
			var unknownBigram float32
			var unknownCount uint32
			var bigram float32
			if known {
				bigram = bigramCost
			} else {
				unknownBigram = bigramCost
				unknownCount = 1
			}

			var skip float32
			if pe.hasPrev {
				mm := g.NodesEndingAt(pe.prevEnd)[pe.prevIdx]
				skip = languageModel.SkipBigramCost(mm.WordID, n.WordID)
			}

			ne := entry{
				unigramCost:        pe.unigramCost + n.UnigramCost,
				bigramCost:         pe.bigramCost + bigram,
				unknownBigramCost:  pe.unknownBigramCost + unknownBigram,
				skipBigramCost:     pe.skipBigramCost + skip,
				unknownBigramCount: pe.unknownBigramCount + unknownCount,
				tokenCount:         pe.tokenCount + 1,
				surface:            pe.surface + n.Surface,
				hasPrev:            true,
				prevEnd:            n.Start,
				prevIdx:            mi,
				prevRank:           rank,
			}
			ne.cost = ne.unigramCost + ne.bigramCost + ne.unknownBigramCost + ne.skipBigramCost
			candidates = append(candidates, ne)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.tokenCount != b.tokenCount {
			return a.tokenCount < b.tokenCount
		}
		return a.surface < b.surface
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// breakdownFanout and breakdownMaxDepth are the same heuristic
// constants original_source/libakaza/src/graph/graph_resolver.rs's
// collect_breakdown_results uses: explore the 3 cheapest sub-word
// continuations at each step, give up past 4 levels of decomposition.
const (
	breakdownFanout   = 3
	breakdownMaxDepth = 4
)

// BreakdownCandidates decomposes a clause's chosen node into shorter
// sub-word sequences covering the same span, for use when a clause has
// too few strict (single-node) alternatives to be useful (spec.md §4.6
// / SPEC_FULL.md §4.11's compound-word breakdown). It walks the lattice
// backward from node.End to node.Start, at each step trying the
// breakdownFanout cheapest lattice nodes ending at the current
// position, and returns one Candidate per decomposition that exactly
// reconstructs node's reading using more than one sub-word.
func BreakdownCandidates(g *lattice.Graph, node model.WordNode) []model.Candidate {
	var out []model.Candidate
	breakdown(g, node.Reading, node.Start, node.End, 0, "", "", 0, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

func breakdown(g *lattice.Graph, targetReading string, minStart, endPos, depth int, curSurface, curReading string, tailCost float32, out *[]model.Candidate) {
	if depth > breakdownMaxDepth {
		return
	}
	if len(curReading) == len(targetReading) {
		if depth > 1 {
			*out = append(*out, model.Candidate{Surface: curSurface, Reading: curReading, Cost: tailCost})
		}
		return
	}

	type scored struct {
		node model.WordNode
		cost float32
	}
	var candidates []scored
	for _, n := range g.NodesEndingAt(endPos) {
		if n.WordID == model.BOSID || n.WordID == model.EOSID {
			continue
		}
		if n.Start < minStart || n.Reading == targetReading {
			continue // outside the clause span, or the un-decomposed candidate itself
		}
		if len(n.Reading) > len(targetReading)-len(curReading) {
			continue // would overshoot the remaining span
		}
		candidates = append(candidates, scored{node: n, cost: n.UnigramCost})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].cost < candidates[j].cost })
	if len(candidates) > breakdownFanout {
		candidates = candidates[:breakdownFanout]
	}

	for _, c := range candidates {
		breakdown(g, targetReading, minStart, c.node.Start, depth+1,
			c.node.Surface+curSurface, c.node.Reading+curReading,
			tailCost+c.node.UnigramCost, out)
	}
}

// materializePath walks prev pointers from (end, idx, rank) back to BOS,
// collecting nodes in reverse order, then reverses them into a Path.
func materializePath(g *lattice.Graph, kBest map[int][][]entry, end, idx, rank int) model.Path {
	var nodes []model.WordNode
	e, i, r := end, idx, rank

	for {
		n := g.NodesEndingAt(e)[i]
		nodes = append(nodes, n)
		if n.WordID == model.BOSID {
			break
		}
		ent := kBest[e][i][r]
		if !ent.hasPrev {
			break
		}
		e, i, r = ent.prevEnd, ent.prevIdx, ent.prevRank
	}

	for l, rt := 0, len(nodes)-1; l < rt; l, rt = l+1, rt-1 {
		nodes[l], nodes[rt] = nodes[rt], nodes[l]
	}

	finalEntry := kBest[end][idx][rank]
	return model.Path{
		Nodes:              nodes,
		UnigramCost:        finalEntry.unigramCost,
		BigramCost:         finalEntry.bigramCost,
		UnknownBigramCost:  finalEntry.unknownBigramCost,
		SkipBigramCost:     finalEntry.skipBigramCost,
		UnknownBigramCount: finalEntry.unknownBigramCount,
		TokenCount:         finalEntry.tokenCount,
		ViterbiCost:        finalEntry.cost,
	}
}
