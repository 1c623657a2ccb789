// Package rerank implements ReRanker (spec.md §4.7): a linear re-scoring
// of the k paths the resolver already produced, using tunable weights
// separate from the DP's equal weights so candidate diversity survives
// the forward/backward search before the final ranking is applied.
//
// Grounded on
// original_source/libakaza/src/graph/reranking.rs's cost-breakdown
// weighting formula; model.ReRankingWeights / DefaultReRankingWeights
// (model/model.go) carry the field names and default values straight
// from it.
package rerank

import (
	"sort"

	"akaza/model"
)

// Rank re-scores paths with weights and returns them sorted ascending
// by rerank cost, ties broken by original viterbi rank (stable sort
// over the already-viterbi-ordered input).
func Rank(paths []model.Path, weights model.ReRankingWeights) []model.Path {
	out := make([]model.Path, len(paths))
	copy(out, paths)
	for i := range out {
		out[i].RerankCost = cost(out[i], weights)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankCost < out[j].RerankCost
	})
	return out
}

func cost(p model.Path, w model.ReRankingWeights) float32 {
	return p.UnigramCost +
		w.BigramWeight*p.BigramCost +
		w.UnknownBigramWeight*p.UnknownBigramCost +
		w.SkipBigramWeight*p.SkipBigramCost +
		w.LengthWeight*float32(p.TokenCount)
}
