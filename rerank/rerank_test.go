package rerank

import (
	"testing"

	"akaza/model"
)

func TestDefaultWeightsReproduceViterbiOrder(t *testing.T) {
	paths := []model.Path{
		{UnigramCost: 1, BigramCost: 2, UnknownBigramCost: 0, SkipBigramCost: 0, TokenCount: 1, ViterbiCost: 3},
		{UnigramCost: 1, BigramCost: 1, UnknownBigramCost: 0, SkipBigramCost: 0, TokenCount: 1, ViterbiCost: 2},
	}
	out := Rank(paths, model.DefaultReRankingWeights())
	if out[0].RerankCost > out[1].RerankCost {
		t.Fatalf("expected cheaper path first, got %+v", out)
	}
	if out[0].BigramCost != 1 {
		t.Fatalf("expected cheapest-bigram path first, got %+v", out[0])
	}
}

func TestLengthWeightPenalizesLongerPaths(t *testing.T) {
	paths := []model.Path{
		{UnigramCost: 1, TokenCount: 1},
		{UnigramCost: 1, TokenCount: 5},
	}
	weights := model.ReRankingWeights{BigramWeight: 1, LengthWeight: 1, UnknownBigramWeight: 1, SkipBigramWeight: 1}
	out := Rank(paths, weights)
	if out[0].TokenCount != 1 {
		t.Fatalf("expected shorter path ranked first, got %+v", out)
	}
}
