package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"akaza/dictionary"
	"akaza/engine"
	"akaza/lm"
	"akaza/model"
	"akaza/numeral"
	"akaza/userlearn"
)

func newTestEngineForCLI(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "SKK-JISYO.akaza")
	if err := os.WriteFile(dictPath, []byte("わたし /私/\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	languageModel, err := lm.Build(
		[]lm.UnigramEntry{{Key: "私/わたし", ID: 16, Score: 1.0}},
		[]lm.BigramEntry{{ID1: model.BOSID, ID2: 16, Score: 0.2}},
		nil, 10.0,
	)
	if err != nil {
		t.Fatalf("lm.Build: %v", err)
	}
	sysDict, err := dictionary.LoadSKK(dictPath)
	if err != nil {
		t.Fatalf("LoadSKK: %v", err)
	}
	user := userlearn.New()

	return engine.New(languageModel, dictionary.NewMerged(user.Dictionary(), sysDict), user, model.DefaultReRankingWeights(), numeral.New())
}

func TestEvaluateStreamPreservesOrder(t *testing.T) {
	e := newTestEngineForCLI(t)
	defer e.Close()

	input := strings.NewReader("わたし\nわたし\n")
	out, err := evaluateStream(context.Background(), e, input, 2, 1)
	if err != nil {
		t.Fatalf("evaluateStream: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(out))
	}
	for _, o := range out {
		if o.Input != "わたし" {
			t.Fatalf("expected input %q, got %q", "わたし", o.Input)
		}
		if len(o.Segmentations) == 0 {
			t.Fatalf("expected at least one segmentation")
		}
	}
}
