package engine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"akaza/dictionary"
	"akaza/lm"
	"akaza/model"
	"akaza/numeral"
	"akaza/userlearn"
)

// buildScenarioEngine wires a throwaway SKK dictionary plus a hand-built
// LanguageModel into an Engine, for exercising the concrete end-to-end
// segmentation scenarios against small, fully-controlled cost tables.
func buildScenarioEngine(t *testing.T, skkContent string, unigrams []lm.UnigramEntry, bigrams []lm.BigramEntry, defaultEdgeCost float32) *Engine {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "SKK-JISYO.akaza")
	if err := os.WriteFile(path, []byte(skkContent), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sysDict, err := dictionary.LoadSKK(path)
	if err != nil {
		t.Fatalf("LoadSKK: %v", err)
	}
	languageModel, err := lm.Build(unigrams, bigrams, nil, defaultEdgeCost)
	if err != nil {
		t.Fatalf("lm.Build: %v", err)
	}
	user := userlearn.New()
	return New(languageModel, dictionary.NewMerged(user.Dictionary(), sysDict), user, model.DefaultReRankingWeights(), numeral.New())
}

func firstSurfaces(clauses []model.ClauseCandidates) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Candidates[0].Surface
	}
	return out
}

func assertSurfaces(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("clause count = %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("clause %d surface = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

// Scenario 1: きょうはいいてんきですね -> 今日/は/いい/天気/です/ね
func TestScenarioTodayIsNiceWeather(t *testing.T) {
	e := buildScenarioEngine(t,
		"きょう /今日/\nは /は/\nいい /いい/\nてんき /天気/\nです /です/\nね /ね/\n",
		[]lm.UnigramEntry{
			{Key: "今日/きょう", ID: 16, Score: 1.0},
			{Key: "は/は", ID: 17, Score: 1.0},
			{Key: "いい/いい", ID: 18, Score: 1.0},
			{Key: "天気/てんき", ID: 19, Score: 1.0},
			{Key: "です/です", ID: 20, Score: 1.0},
			{Key: "ね/ね", ID: 21, Score: 1.0},
		},
		[]lm.BigramEntry{
			{ID1: model.BOSID, ID2: 16, Score: 0.1},
			{ID1: 16, ID2: 17, Score: 0.1},
			{ID1: 17, ID2: 18, Score: 0.1},
			{ID1: 18, ID2: 19, Score: 0.1},
			{ID1: 19, ID2: 20, Score: 0.1},
			{ID1: 20, ID2: 21, Score: 0.1},
			{ID1: 21, ID2: model.EOSID, Score: 0.1},
		},
		50.0,
	)

	segs, err := e.Convert(context.Background(), "きょうはいいてんきですね", 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(segs) == 0 {
		t.Fatalf("expected at least one segmentation")
	}
	assertSurfaces(t, firstSurfaces(segs[0]), []string{"今日", "は", "いい", "天気", "です", "ね"})
}

// Scenario 2: わたしのなまえはなかのです -> 私/の/名前/は/中野/です
func TestScenarioMyNameIsNakano(t *testing.T) {
	e := buildScenarioEngine(t,
		"わたし /私/\nの /の/\nなまえ /名前/\nは /は/\nなかの /中野/\nです /です/\n",
		[]lm.UnigramEntry{
			{Key: "私/わたし", ID: 16, Score: 1.0},
			{Key: "の/の", ID: 17, Score: 1.0},
			{Key: "名前/なまえ", ID: 18, Score: 1.0},
			{Key: "は/は", ID: 19, Score: 1.0},
			{Key: "中野/なかの", ID: 20, Score: 1.0},
			{Key: "です/です", ID: 21, Score: 1.0},
		},
		[]lm.BigramEntry{
			{ID1: model.BOSID, ID2: 16, Score: 0.1},
			{ID1: 16, ID2: 17, Score: 0.1},
			{ID1: 17, ID2: 18, Score: 0.1},
			{ID1: 18, ID2: 19, Score: 0.1},
			{ID1: 19, ID2: 20, Score: 0.1},
			{ID1: 20, ID2: 21, Score: 0.1},
			{ID1: 21, ID2: model.EOSID, Score: 0.1},
		},
		50.0,
	)

	segs, err := e.Convert(context.Background(), "わたしのなまえはなかのです", 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	assertSurfaces(t, firstSurfaces(segs[0]), []string{"私", "の", "名前", "は", "中野", "です"})
}

// Scenario 3: きたかなざわ with k=2 -> rank 1: 北/金沢; rank 2: 来た/かなざわ
func TestScenarioKitaKanazawaAmbiguity(t *testing.T) {
	e := buildScenarioEngine(t,
		"きた /北/来た/\nかなざわ /金沢/\n",
		[]lm.UnigramEntry{
			{Key: "北/きた", ID: 16, Score: 1.0},
			{Key: "来た/きた", ID: 17, Score: 1.2},
			{Key: "金沢/かなざわ", ID: 18, Score: 1.0},
		},
		[]lm.BigramEntry{
			{ID1: model.BOSID, ID2: 16, Score: 0.5},
			{ID1: model.BOSID, ID2: 17, Score: 0.5},
			{ID1: 16, ID2: 18, Score: 0.2},
			{ID1: 17, ID2: model.UnknownID, Score: 0.3},
			{ID1: 18, ID2: model.EOSID, Score: 0.2},
			{ID1: model.UnknownID, ID2: model.EOSID, Score: 0.3},
		},
		20.0,
	)

	segs, err := e.Convert(context.Background(), "きたかなざわ", 2)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(segs) < 2 {
		t.Fatalf("expected at least 2 ranked segmentations, got %d", len(segs))
	}
	assertSurfaces(t, firstSurfaces(segs[0]), []string{"北", "金沢"})
	assertSurfaces(t, firstSurfaces(segs[1]), []string{"来た", "かなざわ"})
}

// Scenario 4: 365にち -> dynamic-marker rewrite to 三百六十五/日, with the
// numeral node's word id equal to model.NumID (the reserved <NUM> id).
func TestScenarioNumeralDateCounter(t *testing.T) {
	e := buildScenarioEngine(t,
		"にち /日/\n",
		[]lm.UnigramEntry{
			{Key: "日/にち", ID: 16, Score: 1.0},
		},
		[]lm.BigramEntry{
			{ID1: model.BOSID, ID2: model.NumID, Score: 0.3},
			{ID1: model.NumID, ID2: 16, Score: 0.2},
			{ID1: 16, ID2: model.EOSID, Score: 0.2},
		},
		20.0,
	)

	segs, err := e.Convert(context.Background(), "365にち", 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	assertSurfaces(t, firstSurfaces(segs[0]), []string{"三百六十五", "日"})

	paths := e.AvailableSegmentations()
	if len(paths) == 0 {
		t.Fatalf("expected available segmentations")
	}
	foundMarker := false
	for _, n := range paths[0].Nodes {
		if n.Reading == "365" {
			foundMarker = true
			if n.WordID != model.NumID {
				t.Fatalf("numeral node word id = %d, want model.NumID (%d)", n.WordID, model.NumID)
			}
		}
	}
	if !foundMarker {
		t.Fatalf("expected a node with reading %q in the chosen path", "365")
	}
}

// Scenario 5: 1ぴき and 100ぴき both route their digit run through the
// same reserved NUMBER-KANSUJI word id, so the bigram cost to the
// following counter word is identical regardless of the actual number.
func TestScenarioNumeralCounterSharesNormalisedID(t *testing.T) {
	e := buildScenarioEngine(t,
		"ぴき /匹/\n",
		[]lm.UnigramEntry{
			{Key: "匹/ぴき", ID: 16, Score: 1.0},
		},
		[]lm.BigramEntry{
			{ID1: model.BOSID, ID2: model.NumID, Score: 0.3},
			{ID1: model.NumID, ID2: 16, Score: 0.2},
			{ID1: 16, ID2: model.EOSID, Score: 0.2},
		},
		20.0,
	)

	if _, err := e.Convert(context.Background(), "1ぴき", 1); err != nil {
		t.Fatalf("Convert(1ぴき): %v", err)
	}
	smallID := numeralWordID(t, e)
	if _, err := e.Convert(context.Background(), "100ぴき", 1); err != nil {
		t.Fatalf("Convert(100ぴき): %v", err)
	}
	largeID := numeralWordID(t, e)

	if smallID != model.NumID || largeID != model.NumID {
		t.Fatalf("numeral word ids = %d, %d, want both = model.NumID (%d)", smallID, largeID, model.NumID)
	}

	smallCost, known := e.lm.BigramCost(smallID, 16)
	if !known {
		t.Fatalf("expected BigramCost(NumID, counter) to be known")
	}
	largeCost, known := e.lm.BigramCost(largeID, 16)
	if !known {
		t.Fatalf("expected BigramCost(NumID, counter) to be known")
	}
	if smallCost != largeCost {
		t.Fatalf("bigram cost to the counter differs by number value: %v vs %v", smallCost, largeCost)
	}
}

// numeralWordID returns the word id of the digit-run node in the most
// recently converted path (its Marker field is set only for the
// NUMBER-KANSUJI node, so it is unambiguous among the two-node path).
func numeralWordID(t *testing.T, e *Engine) int32 {
	t.Helper()
	for _, n := range e.AvailableSegmentations()[0].Nodes {
		if n.Marker == model.MarkerNumberKansuji {
			return n.WordID
		}
	}
	t.Fatalf("no NUMBER-KANSUJI marker node found in the chosen path")
	return 0
}

// Scenario 6: a single unseen hiragana character still converts, as a
// one-clause hiragana fallback with a finite viterbi cost.
func TestScenarioUnseenSingleHiragana(t *testing.T) {
	e := buildScenarioEngine(t, "", nil, nil, 10.0)

	segs, err := e.Convert(context.Background(), "あ", 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(segs) != 1 || len(segs[0]) != 1 {
		t.Fatalf("expected exactly one segmentation with one clause, got %v", segs)
	}
	if got := segs[0][0].Candidates[0].Surface; got != "あ" {
		t.Fatalf("clause surface = %q, want %q", got, "あ")
	}

	paths := e.AvailableSegmentations()
	if len(paths) != 1 {
		t.Fatalf("expected one available segmentation, got %d", len(paths))
	}
	cost := paths[0].ViterbiCost
	if math.IsInf(float64(cost), 0) || math.IsNaN(float64(cost)) {
		t.Fatalf("viterbi cost is not finite: %v", cost)
	}
}
