// Package segmenter implements spec.md §4.4: partitioning a hiragana
// string into every valid reading span reachable from position 0, via a
// BFS over dictionary common-prefix hits plus a digit rule and an
// unknown-run fallback so the lattice is never disconnected.
//
// Grounded on spec.md §4.4's algorithm description directly --
// original_source/libakaza/src/graph/segmenter.rs was referenced
// extensively by graph_resolver.rs's and graph_builder.rs's test
// modules (via Segmenter::new/Segmenter::build/SegmentationResult) but
// is not present among the retrieved original_source files, so this
// implementation follows spec.md's BFS description verbatim rather than
// a literal Rust port. The BFS-over-reachable-positions control flow
// mirrors the teacher's queue-driven scan in
// williambechard-japaneseparse/tokenize/tokenize.go.
package segmenter

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"akaza/dictionary"
)

var digitRule = regexp.MustCompile(`^(?:0|[1-9][0-9]*)(?:\.[0-9]*)?`)

// Reading is one (start, end) span with its literal text, per spec.md
// §3's Reading type.
type Reading struct {
	Start int
	End   int
	Text  string
}

// Result is the Segmenter's output: every end position reachable from 0,
// mapped to the readings ending there (spec.md §4.4's `ends` map).
type Result struct {
	Ends map[int][]Reading
	N    int // byte length of the input
}

// ReadingsEndingAt returns the readings the segmenter found ending at e,
// in the order they were discovered.
func (r *Result) ReadingsEndingAt(e int) []Reading {
	return r.Ends[e]
}

// Segment runs the BFS described in spec.md §4.4 over s using dict for
// common-prefix lookups.
func Segment(s string, dict *dictionary.Merged) *Result {
	n := len(s)
	res := &Result{Ends: map[int][]Reading{}, N: n}
	res.Ends[0] = []Reading{{Start: 0, End: 0, Text: ""}}
	if n == 0 {
		res.Ends[0] = []Reading{{Start: 0, End: 0, Text: ""}}
		return res
	}

	reachable := map[int]bool{0: true}
	queue := []int{0}
	seenPos := map[int]bool{0: true}

	addReading := func(p, e int) {
		if e <= p {
			return
		}
		res.Ends[e] = append(res.Ends[e], Reading{Start: p, End: e, Text: s[p:e]})
		if !reachable[e] {
			reachable[e] = true
			if !seenPos[e] {
				seenPos[e] = true
				queue = append(queue, e)
			}
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p >= n {
			continue
		}

		rest := s[p:]
		var hitEnds []Reading

		if dict != nil {
			for _, hit := range dict.CommonPrefixSearch(rest) {
				addReading(p, p+hit.MatchedLen)
				hitEnds = append(hitEnds, Reading{Start: p, End: p + hit.MatchedLen})
			}
		}

		if loc := digitRule.FindStringIndex(rest); loc != nil && loc[0] == 0 && loc[1] > 0 {
			addReading(p, p+loc[1])
			hitEnds = append(hitEnds, Reading{Start: p, End: p + loc[1]})
		}

		// Hiragana/katakana-only fallback spans: always added for every
		// position, even when the dictionary or digit rule already hit,
		// per spec.md §4.4 step 4's "always added ... even when the
		// dictionary hits".
		addKanaFallbacks(s, p, n, res)

		if len(hitEnds) == 0 {
			// Unknown-run fallback: successively longer single-rune
			// readings up to the next reachable position (there is none
			// yet for an unhit start) or the string end.
			addUnknownRun(s, p, n, res, addReading)
		}
	}

	res.Ends[n] = append(res.Ends[n], Reading{Start: n, End: n, Text: ""})
	return res
}

// addKanaFallbacks emits the longest pure-hiragana and pure-katakana run
// starting at p as its own reading, so a lattice node always exists for
// "plain kana as typed" regardless of dictionary coverage.
func addKanaFallbacks(s string, p, n int, res *Result) {
	end := p
	for end < n {
		r, size := utf8.DecodeRuneInString(s[end:])
		if r < 0x3040 || r > 0x309F {
			break
		}
		end += size
	}
	if end > p {
		res.Ends[end] = append(res.Ends[end], Reading{Start: p, End: end, Text: s[p:end]})
	}

	end = p
	for end < n {
		r, size := utf8.DecodeRuneInString(s[end:])
		if r < 0x30A0 || r > 0x30FF {
			break
		}
		end += size
	}
	if end > p {
		res.Ends[end] = append(res.Ends[end], Reading{Start: p, End: end, Text: s[p:end]})
	}
}

// addUnknownRun extends the reading by one rune from p, adding a reading
// (and marking its end reachable) so a position with no dictionary/digit
// hit never breaks the lattice. Longer unknown runs fall out naturally:
// the BFS revisits the newly reachable end and extends again from there.
func addUnknownRun(s string, p, n int, res *Result, addReading func(p, e int)) {
	if p >= n {
		return
	}
	_, size := utf8.DecodeRuneInString(s[p:])
	addReading(p, p+size)
}

// ToKatakana converts a hiragana string to its katakana equivalent,
// rune-by-rune shift of 0x60 over the shared block range.
func ToKatakana(hira string) string {
	var b strings.Builder
	for _, r := range hira {
		if r >= 0x3041 && r <= 0x3096 {
			b.WriteRune(r + 0x60)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortedEnds returns the keys of Ends in ascending order, the iteration
// order every downstream consumer (LatticeGraph, GraphResolver) needs.
func (r *Result) SortedEnds() []int {
	ends := make([]int, 0, len(r.Ends))
	for e := range r.Ends {
		ends = append(ends, e)
	}
	sort.Ints(ends)
	return ends
}
