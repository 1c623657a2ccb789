package lm

import "testing"

func TestNormalizeForLM(t *testing.T) {
	cases := []struct {
		in       string
		wantOut  string
		wantNorm bool
	}{
		{"1/1", "1/1", false},
		{"1匹/1ひき", "<NUM>匹/<NUM>ひき", true},
		{"100匹/100ひき", "<NUM>匹/<NUM>ひき", true},
		{"第1回/だい1かい", "第1回/だい1かい", false},
		{"1.5匹/1.5ひき", "<NUM>.5匹/<NUM>.5ひき", true},
	}
	for _, c := range cases {
		got, norm := normalizeForLM(c.in)
		if norm != c.wantNorm || got != c.wantOut {
			t.Errorf("normalizeForLM(%q) = (%q, %v), want (%q, %v)", c.in, got, norm, c.wantOut, c.wantNorm)
		}
	}
}

func TestWordCostNumericNormalisationSharesID(t *testing.T) {
	model, err := Build([]UnigramEntry{
		{Key: "<NUM>匹/<NUM>ひき", ID: 20, Score: 3.0},
	}, nil, nil, 10.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, id1, ok1 := model.WordCost("1匹", "1ひき")
	_, id2, ok2 := model.WordCost("100匹", "100ひき")
	if !ok1 || !ok2 {
		t.Fatalf("expected both numeric surfaces to resolve via normalisation")
	}
	if id1 != id2 {
		t.Fatalf("expected shared word_id, got %d vs %d", id1, id2)
	}
}

func TestBigramCostFallback(t *testing.T) {
	model, err := Build(nil, []BigramEntry{{ID1: 5, ID2: 6, Score: 1.25}}, nil, 9.5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cost, known := model.BigramCost(5, 6)
	if !known || cost != 1.25 {
		t.Fatalf("got cost=%f known=%v, want 1.25/true", cost, known)
	}

	cost, known = model.BigramCost(5, 999)
	if known || cost != 9.5 {
		t.Fatalf("got cost=%f known=%v, want 9.5/false", cost, known)
	}
}

func TestSkipBigramAbsentIsZero(t *testing.T) {
	model, err := Build(nil, nil, nil, 10.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if model.HasSkipBigram() {
		t.Fatalf("expected no skip-bigram model")
	}
	if c := model.SkipBigramCost(1, 2); c != 0 {
		t.Fatalf("expected 0, got %f", c)
	}
}

func TestUnknownWordCostKanjiShortened(t *testing.T) {
	model, err := Build(nil, nil, nil, 10.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cost, id, known := model.WordCost("金沢", "かなざわ")
	if known {
		t.Fatalf("expected unknown word")
	}
	if id != 15 {
		t.Fatalf("expected model.UnknownID (15), got %d", id)
	}
	shortCost := cost
	cost2, _, _ := model.WordCost("かなざわ", "かなざわ")
	if shortCost >= cost2 {
		t.Fatalf("expected kanji-shortened unknown cost (%f) to be cheaper than same-length unknown cost (%f)", shortCost, cost2)
	}
}
