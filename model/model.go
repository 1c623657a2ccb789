// Package model holds the core data types shared across the conversion
// pipeline (readings, lattice nodes, paths, re-ranker weights) plus the
// token/dictionary-entry types used by the round-trip verifier and the
// JMdict gloss-lookup enrichment.
package model

import "fmt"

// Reserved word ids. BOS/EOS are fixed per spec; dynamic marker classes
// get their own reserved ids so they are opaque to the DP but still valid
// bigram/skip-bigram operands.
const (
	BOSID int32 = 0
	EOSID int32 = 1
	NumID int32 = 2

	// Marker class ids, materialised post-selection by DynamicRewriters.
	// DateID/TimeID are reserved per spec.md §3's class list but unused:
	// neither the segmenter nor DynamicRewriters produces DATE/TIME
	// markers (see numeral's package doc comment / DESIGN.md).
	DateID int32 = 3
	TimeID int32 = 4

	// UnknownID tags a node with no dictionary/model entry at all (a
	// hiragana or katakana fallback surface). It participates in bigram
	// lookups like any other id; a model with no bigram entry for it
	// falls back to the default edge cost.
	UnknownID int32 = 15

	// FirstFreeID is the first id a LanguageModel may assign to an
	// ordinary unigram entry loaded from a model file.
	FirstFreeID int32 = 16
)

// MarkerClass names a dynamic marker surface class.
type MarkerClass string

const (
	MarkerNumberKansuji MarkerClass = "NUMBER-KANSUJI"
	MarkerDate          MarkerClass = "DATE"
	MarkerTime          MarkerClass = "TIME"
)

// MarkerSurface returns the opaque marker surface for a class, per
// spec.md §3: `"(*(*("<class>"`.
func MarkerSurface(class MarkerClass) string {
	return fmt.Sprintf("(*(*(%s", class)
}

// IsMarkerSurface reports whether s is a dynamic marker surface and, if
// so, which class.
func IsMarkerSurface(s string) (MarkerClass, bool) {
	const prefix = "(*(*("
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return MarkerClass(s[len(prefix):]), true
}

// Reading is a hiragana (or digit-tagged) substring of the input,
// identified by byte offsets into the original string.
type Reading struct {
	Start int
	End   int
	Text  string
}

// WordNode is a lattice node. Surface/Reading/Start/End are immutable
// once built; UnigramCost is cached at build time from the LanguageModel.
type WordNode struct {
	Start       int
	End         int
	Surface     string
	Reading     string
	WordID      int32
	UnigramCost float32
	Marker      MarkerClass // "" unless this is a dynamic-marker node
	FromUser    bool        // true if this surface came from the user dictionary
}

// BOSTokenKey / EOSTokenKey name the sentinel nodes, mirroring the
// "surface/reading" key convention used for every other unigram entry.
const (
	BOSTokenKey = "__BOS__/__BOS__"
	EOSTokenKey = "__EOS__/__EOS__"
)

// Key returns the "surface/reading" lookup key for n.
func (n WordNode) Key() string {
	if n.WordID == BOSID {
		return BOSTokenKey
	}
	if n.WordID == EOSID {
		return EOSTokenKey
	}
	return n.Surface + "/" + n.Reading
}

func NewBOS() WordNode {
	return WordNode{Start: 0, End: 0, Surface: "__BOS__", Reading: "__BOS__", WordID: BOSID}
}

func NewEOS(pos int) WordNode {
	return WordNode{Start: pos, End: pos, Surface: "__EOS__", Reading: "__EOS__", WordID: EOSID}
}

// Candidate is one alternative surface for a clause, in display order.
type Candidate struct {
	Surface string  `json:"surface"`
	Reading string  `json:"reading"`
	Cost    float32 `json:"cost"`
}

// ClauseCandidates is the ordered candidate list for one clause (one
// bunsetsu) of a segmentation.
type ClauseCandidates struct {
	Start      int         `json:"start"`
	End        int         `json:"end"`
	Candidates []Candidate `json:"candidates"`
}

// Path is one full BOS..EOS segmentation, with the cost breakdown the
// ReRanker needs. ViterbiCost is never overwritten once computed by the
// resolver; RerankCost is derived from the breakdown by ReRankingWeights.
type Path struct {
	Nodes []WordNode

	UnigramCost        float32
	BigramCost         float32
	UnknownBigramCost  float32
	SkipBigramCost     float32
	UnknownBigramCount uint32
	TokenCount         uint32

	ViterbiCost float32
	RerankCost  float32
}

// Surface concatenates the path's node surfaces (sentinels excluded).
func (p Path) Surface() string {
	s := ""
	for _, n := range p.Nodes {
		if n.WordID == BOSID || n.WordID == EOSID {
			continue
		}
		s += n.Surface
	}
	return s
}

// Reading concatenates the path's node readings (sentinels excluded).
func (p Path) Reading() string {
	s := ""
	for _, n := range p.Nodes {
		if n.WordID == BOSID || n.WordID == EOSID {
			continue
		}
		s += n.Reading
	}
	return s
}

// ReRankingWeights are the tunable linear re-scoring weights applied
// after k-best DP selection. unigram_weight is fixed at 1.0 (the scale
// anchor) and is therefore not a field here.
type ReRankingWeights struct {
	BigramWeight        float32 `json:"bigram_weight"`
	LengthWeight        float32 `json:"length_weight"`
	UnknownBigramWeight float32 `json:"unknown_bigram_weight"`
	SkipBigramWeight    float32 `json:"skip_bigram_weight"`
}

// DefaultReRankingWeights reproduces equal-weight DP behaviour exactly;
// this compatibility is a hard invariant (spec.md §4.7).
func DefaultReRankingWeights() ReRankingWeights {
	return ReRankingWeights{
		BigramWeight:        1.0,
		LengthWeight:        0.0,
		UnknownBigramWeight: 1.0,
		SkipBigramWeight:    1.0,
	}
}

func (w ReRankingWeights) IsDefault() bool {
	return w == DefaultReRankingWeights()
}

// Token represents a token / morpheme produced by the round-trip
// verifier's tokenizer pass (see package verify).
type Token struct {
	Text             string          `json:"text"`
	Lemma            string          `json:"lemma,omitempty"`
	POS              string          `json:"pos,omitempty"`
	Start            int             `json:"start"`
	End              int             `json:"end"`
	Reading          string          `json:"reading,omitempty"`
	Pronunciation    string          `json:"pronunciation,omitempty"`
	TokenID          int             `json:"token_id,omitempty"`
	Conjugation      []string        `json:"conjugation,omitempty"`
	Auxiliaries      []Token         `json:"auxiliaries,omitempty"`
	MergedIndices    []int           `json:"merged_indices,omitempty"`
	ConjugationLabel string          `json:"conjugation_label,omitempty"`
	InflectionType   string          `json:"inflection_type,omitempty"`
	InflectionForm   string          `json:"inflection_form,omitempty"`
	DictionaryEntry  DictionaryEntry `json:"dictionary_entry,omitempty"`
	FuriganaText     string          `json:"furigana_text,omitempty"`
	FuriganaLemma    string          `json:"furigana_lemma,omitempty"`
}

type DictionaryEntry struct {
	Source      string                 `json:"source,omitempty"`
	Kanji       []string               `json:"kanji,omitempty"`
	Readings    []string               `json:"readings,omitempty"`
	Glosses     []string               `json:"glosses,omitempty"`
	POS         []string               `json:"pos,omitempty"`
	Frequency   int                    `json:"frequency,omitempty"`
	IsName      bool                   `json:"is_name,omitempty"`
	IsCommon    bool                   `json:"is_common,omitempty"`
	OtherFields map[string]interface{} `json:"other_fields,omitempty"`
}

type LexEntry struct {
	Token       Token    `json:"token"`
	Readings    []string `json:"readings,omitempty"`
	Definitions []string `json:"definitions,omitempty"`
}
