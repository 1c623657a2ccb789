package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"akaza/model"
)

func sampleSegs() [][]model.ClauseCandidates {
	return [][]model.ClauseCandidates{
		{
			{Start: 0, End: 3, Candidates: []model.Candidate{
				{Surface: "私", Reading: "わたし", Cost: 1.0},
				{Surface: "わたし", Reading: "わたし", Cost: 2.0},
			}},
		},
	}
}

func TestPrintTextIncludesTopSurface(t *testing.T) {
	var buf bytes.Buffer
	if err := printText(&buf, sampleSegs(), 3); err != nil {
		t.Fatalf("printText: %v", err)
	}
	if !strings.Contains(buf.String(), "私") {
		t.Fatalf("expected output to contain the top candidate surface, got %q", buf.String())
	}
}

func TestPrintJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, sampleSegs(), 1, false); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out.Segmentations) != 1 || len(out.Segmentations[0].Clauses) != 1 {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if len(out.Segmentations[0].Clauses[0].Candidates) != 1 {
		t.Fatalf("expected candidates to be truncated to the --candidates limit")
	}
	if out.Segmentations[0].Cost != 1.0 {
		t.Fatalf("expected segmentation cost to be the sum of top candidates, got %v", out.Segmentations[0].Cost)
	}
}

func TestPrintJSONGlossOnlyOnTopCandidateWhenRequested(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, sampleSegs(), 2, true); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	cands := out.Segmentations[0].Clauses[0].Candidates
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Gloss == nil {
		t.Fatalf("expected the top candidate to carry a gloss when withGloss is set")
	}
	if cands[1].Gloss != nil {
		t.Fatalf("expected only the top candidate to carry a gloss")
	}
}
