// Package dictionary implements spec.md §4.3: a forward trie mapping
// hiragana readings to ordered candidate surfaces, with common-prefix
// search so the segmenter can retrieve every reading starting at a given
// position in one call.
//
// The trie is github.com/vcaesar/cedar (same library as package trie),
// used directly here rather than through trie.Store because dictionary
// values are variable-length surface lists, not fixed-width score
// records -- the lookup/insert pattern mirrors
// _examples/other_examples/zouzonghao-glog__engine.go's Dictionary type,
// and the line-scanning texture mirrors
// _examples/teatak-seg/dictionary/dictionary.go's Load.
package dictionary

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/vcaesar/cedar"
)

// Dictionary is a single reading -> surfaces table (one system dictionary
// file, or the user dictionary).
//
// readings is kept alongside entries, index-for-index, so Save can walk
// every stored key without depending on any cedar key-enumeration API --
// only New/Insert/Get/Jump/Value are relied on (the only methods this
// codebase's retrieved examples actually exercise).
type Dictionary struct {
	c        *cedar.Cedar
	readings []string
	entries  [][]string
}

func New() *Dictionary {
	return &Dictionary{c: cedar.New()}
}

// Add registers (or merges into) a reading's candidate surfaces,
// preserving first-occurrence order and de-duplicating.
func (d *Dictionary) Add(reading string, surfaces []string) {
	if id, err := d.c.Get([]byte(reading)); err == nil {
		d.entries[id] = mergeUnique(d.entries[id], surfaces)
		return
	}
	idx := len(d.entries)
	if err := d.c.Insert([]byte(reading), idx); err != nil {
		return
	}
	d.readings = append(d.readings, reading)
	d.entries = append(d.entries, append([]string(nil), surfaces...))
}

func mergeUnique(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			seen[s] = true
			existing = append(existing, s)
		}
	}
	return existing
}

// Lookup returns the candidate surfaces for an exact reading.
func (d *Dictionary) Lookup(reading string) []string {
	id, err := d.c.Get([]byte(reading))
	if err != nil {
		return nil
	}
	return d.entries[id]
}

// PrefixHit is one match from CommonPrefixSearch.
type PrefixHit struct {
	MatchedLen int // bytes of the query matched
	Reading    string
	Surfaces   []string
}

// CommonPrefixSearch returns every stored reading that is a byte-prefix
// of s, shortest match first.
func (d *Dictionary) CommonPrefixSearch(s string) []PrefixHit {
	var hits []PrefixHit
	bs := []byte(s)
	id := 0
	for i, b := range bs {
		next, err := d.c.Jump([]byte{b}, id)
		if err != nil {
			break
		}
		id = next
		if val, err := d.c.Value(id); err == nil {
			hits = append(hits, PrefixHit{MatchedLen: i + 1, Reading: s[:i+1], Surfaces: d.entries[val]})
		}
	}
	return hits
}

// LoadSKK parses an SKK-JISYO format file: "reading /cand1/cand2/.../"
// per line, ";;"-prefixed comment lines and blank lines ignored. A
// malformed line is skipped with a warning (spec.md §7, DictionaryError);
// the load as a whole never fails because of one bad line.
func LoadSKK(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %s: %w", path, err)
	}
	defer f.Close()

	d := New()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		reading, surfaces, ok := parseSKKLine(line)
		if !ok {
			slog.Warn("dictionary: skipping malformed SKK line", "path", path, "line", lineNo)
			continue
		}
		d.Add(reading, surfaces)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dictionary: scan %s: %w", path, err)
	}
	return d, nil
}

func parseSKKLine(line string) (reading string, surfaces []string, ok bool) {
	reading, rest, found := strings.Cut(line, " ")
	if !found {
		reading, rest, found = strings.Cut(line, "\t")
	}
	if !found || reading == "" {
		return "", nil, false
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "/") {
		return "", nil, false
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", nil, false
	}
	for _, cand := range strings.Split(rest, "/") {
		// SKK candidates may carry an annotation after ';', e.g. "候補;ちゅうい".
		cand, _, _ = strings.Cut(cand, ";")
		if cand != "" {
			surfaces = append(surfaces, cand)
		}
	}
	if len(surfaces) == 0 {
		return "", nil, false
	}
	return reading, surfaces, true
}

// Save writes d back out in SKK-JISYO format, for the user dictionary
// overlay. Entries are written in insertion order.
func (d *Dictionary) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	var writeErr error
	for i, reading := range d.readings {
		surfaces := d.entries[i]
		if len(surfaces) == 0 {
			continue
		}
		if _, writeErr = fmt.Fprintf(w, "%s /%s/\n", reading, strings.Join(surfaces, "/")); writeErr != nil {
			break
		}
	}
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if writeErr == nil {
		writeErr = f.Sync()
	}
	if err := f.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return writeErr
	}
	return os.Rename(tmp, path)
}

// Merged is an ordered stack of Dictionary, user first then system
// dictionaries in load order, matching spec.md §4.3's merge policy:
// "user dictionary first, then system dictionaries in load order;
// duplicates removed preserving first occurrence."
type Merged struct {
	dicts []*Dictionary
}

// NewMerged builds a Merged view. user may be nil.
func NewMerged(user *Dictionary, systems ...*Dictionary) *Merged {
	m := &Merged{}
	if user != nil {
		m.dicts = append(m.dicts, user)
	}
	m.dicts = append(m.dicts, systems...)
	return m
}

func (m *Merged) Lookup(reading string) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range m.dicts {
		for _, s := range d.Lookup(reading) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// CommonPrefixSearch merges per-dictionary prefix hits by matched length,
// preserving the user-first/system-order/first-occurrence rule within
// each length bucket.
func (m *Merged) CommonPrefixSearch(s string) []PrefixHit {
	byLen := map[int]*PrefixHit{}
	var lens []int
	for _, d := range m.dicts {
		for _, h := range d.CommonPrefixSearch(s) {
			existing, ok := byLen[h.MatchedLen]
			if !ok {
				cp := h
				cp.Surfaces = append([]string(nil), h.Surfaces...)
				byLen[h.MatchedLen] = &cp
				lens = append(lens, h.MatchedLen)
				continue
			}
			existing.Surfaces = mergeUnique(existing.Surfaces, h.Surfaces)
		}
	}
	insertionSort(lens)
	out := make([]PrefixHit, 0, len(lens))
	for _, l := range lens {
		out = append(out, *byLen[l])
	}
	return out
}

// insertionSort sorts small int slices (common-prefix hit counts per
// query are tiny -- bounded by the longest dictionary entry).
func insertionSort(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
