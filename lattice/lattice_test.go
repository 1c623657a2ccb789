package lattice

import (
	"testing"

	"akaza/dictionary"
	"akaza/lm"
	"akaza/segmenter"
)

func buildTestLM(t *testing.T) *lm.LanguageModel {
	t.Helper()
	m, err := lm.Build(
		[]lm.UnigramEntry{
			{Key: "私/わたし", ID: 16, Score: 2.0},
		},
		nil, nil, 10.0,
	)
	if err != nil {
		t.Fatalf("lm.Build: %v", err)
	}
	return m
}

func TestBuildNodesForReading(t *testing.T) {
	d := dictionary.New()
	d.Add("わたし", []string{"私"})
	merged := dictionary.NewMerged(nil, d)

	s := "わたし"
	seg := segmenter.Segment(s, merged)
	g := Build(seg, merged, nil, buildTestLM(t))

	nodes := g.NodesEndingAt(len(s))
	var sawKanji, sawHiragana bool
	for _, n := range nodes {
		if n.Surface == "私" {
			sawKanji = true
		}
		if n.Surface == "わたし" {
			sawHiragana = true
		}
	}
	if !sawKanji {
		t.Fatalf("expected kanji surface node, got %+v", nodes)
	}
	if !sawHiragana {
		t.Fatalf("expected hiragana fallback node, got %+v", nodes)
	}
}

func TestBuildNumericMarker(t *testing.T) {
	merged := dictionary.NewMerged(nil, dictionary.New())
	s := "123"
	seg := segmenter.Segment(s, merged)
	g := Build(seg, merged, nil, buildTestLM(t))

	found := false
	for _, n := range g.NodesEndingAt(len(s)) {
		if n.Marker != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dynamic marker node for numeric reading, nodes=%+v", g.NodesEndingAt(len(s)))
	}
}

func TestBuildSentinels(t *testing.T) {
	merged := dictionary.NewMerged(nil, dictionary.New())
	s := "あ"
	seg := segmenter.Segment(s, merged)
	g := Build(seg, merged, nil, buildTestLM(t))

	if len(g.NodesEndingAt(0)) != 1 || g.NodesEndingAt(0)[0].Surface != "__BOS__" {
		t.Fatalf("expected BOS sentinel at 0")
	}
	eosNodes := g.NodesEndingAt(len(s))
	foundEOS := false
	for _, n := range eosNodes {
		if n.Surface == "__EOS__" {
			foundEOS = true
		}
	}
	if !foundEOS {
		t.Fatalf("expected EOS sentinel at end, got %+v", eosNodes)
	}
}
