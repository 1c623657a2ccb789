package verify

import "testing"

func TestKatakanaToHiragana(t *testing.T) {
	got := katakanaToHiragana("ワタシ")
	want := "わたし"
	if got != want {
		t.Fatalf("katakanaToHiragana(%q) = %q, want %q", "ワタシ", got, want)
	}
}

func TestVerifyMatch(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := v.Verify("私", "わたし")
	if res.ReconstructedReading == "" {
		t.Fatalf("expected a non-empty reconstructed reading")
	}
	_ = res.Match // kagome's dictionary may segment/read this differently; not asserted exactly
}
