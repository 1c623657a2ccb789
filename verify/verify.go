// Package verify round-trips a selected conversion candidate through an
// independent morphological analyzer: the candidate's kanji surface is
// re-tokenized, the tokens' katakana readings are joined and folded to
// hiragana, and the result is compared against the original input. A
// mismatch does not block a candidate (the conversion engine has no
// obligation to agree with a general-purpose tokenizer's dictionary); it
// is a standalone self-check: no other package of this module (neither
// the evaluate CLI nor the lattice/resolver tests) calls it.
//
// Grounded on williambechard-japaneseparse/tokenize/tokenize.go:
// convertKagomeTokens's kagome.Tokenize + Token.Reading()/Pronunciation()
// usage and katakanaToHiragana's rune-shift conversion are carried over
// directly, retargeted from furigana display to reading-equality
// verification.
package verify

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Verifier wraps a kagome tokenizer loaded with the IPADIC, the same
// dictionary the reference tree's tokenizer used, plus an optional
// KANJIDIC2 reading index used to explain a mismatch.
type Verifier struct {
	t   *tokenizer.Tokenizer
	idx *ReadingIndex
}

// New builds a Verifier. Construction can fail if the embedded IPA
// dictionary fails to load, which in practice only happens on an
// incompatible kagome-dict/ipa version.
func New() (*Verifier, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Verifier{t: t}, nil
}

// WithKanjidic attaches a ReadingIndex, enabling AlignmentHint on a
// mismatched Result. Optional: a Verifier built without one still
// verifies, it just can't explain a mismatch per-kanji.
func (v *Verifier) WithKanjidic(idx *ReadingIndex) *Verifier {
	v.idx = idx
	return v
}

// Result is the outcome of re-tokenizing a candidate surface.
type Result struct {
	Surface              string
	ExpectedReading      string
	ReconstructedReading string
	Match                bool
}

// AlignmentHint returns a per-kanji bracketed alignment of r's surface
// against its expected reading, for diagnosing why r.Match is false. It
// returns the empty string when no ReadingIndex was attached via
// WithKanjidic.
func (v *Verifier) AlignmentHint(r Result) string {
	if v.idx == nil {
		return ""
	}
	return v.idx.Align(r.Surface, r.ExpectedReading)
}

// Verify re-tokenizes surface with kagome, reconstructs its reading by
// joining each token's katakana reading (falling back to the token's own
// surface when kagome reports no reading, e.g. for punctuation) and
// folding to hiragana, then compares it against expectedReading.
func (v *Verifier) Verify(surface, expectedReading string) Result {
	toks := v.t.Tokenize(surface)
	var b strings.Builder
	for _, kt := range toks {
		if kt.Class == tokenizer.DUMMY {
			continue
		}
		reading, ok := kt.Reading()
		if !ok || reading == "" {
			reading = kt.Surface
		}
		b.WriteString(katakanaToHiragana(reading))
	}
	reconstructed := b.String()
	return Result{
		Surface:               surface,
		ExpectedReading:       expectedReading,
		ReconstructedReading:  reconstructed,
		Match:                 reconstructed == expectedReading,
	}
}

// katakanaToHiragana folds katakana runes to their hiragana equivalent,
// leaving every other rune (kanji, punctuation, already-hiragana) as is.
func katakanaToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
