// Package lm implements LanguageModel: word_cost / bigram_cost /
// skip_bigram_cost over TrieScoreStore-backed unigram, bigram and
// (optional) skip-bigram tables, per spec.md §4.2.
package lm

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"akaza/model"
	"akaza/trie"
)

const (
	// DefaultEdgeCostKey is the reserved bigram-store entry carrying the
	// fallback cost for an unknown bigram, so it is tunable per model
	// build instead of hardcoded (SPEC_FULL.md §4.11, "Default edge cost
	// sentinel key", grounded on system_bigram.rs's __DEFAULT_EDGE_COST__).
	DefaultEdgeCostKey = "__DEFAULT_EDGE_COST__"

	fallbackDefaultEdgeCost  float32 = 10.0
	fallbackUnknownUnigram0  float32 = 12.0 // plain unknown-word cost
	fallbackUnknownUnigram1  float32 = 8.0  // kanji-shortened unknown-word cost (cheaper: a
	                                        // kanji surface shorter than its reading is very
	                                        // likely a real word we simply didn't score)
)

const unigramRecordSize = 8 // id:int32-LE + score:float32-LE
const bigramRecordSize = 2  // score:float16-LE

// UnigramEntry is one (surface/reading, id, score) row for Build.
type UnigramEntry struct {
	Key   string // "surface/reading"
	ID    int32
	Score float32
}

// BigramEntry is one (id1, id2, score) row for Build.
type BigramEntry struct {
	ID1, ID2 int32
	Score    float32
}

// LanguageModel answers word/bigram/skip-bigram costs. Immutable once
// built; safe to share across goroutines (spec.md §5).
type LanguageModel struct {
	unigram     *trie.Store
	bigram      *trie.Store
	skipBigram  *trie.Store // nil if no skip-bigram model was loaded

	defaultEdgeCost  float32
	unknownUnigram0  float32
	unknownUnigram1  float32
}

func encodeUnigramRecord(id int32, score float32) []byte {
	b := make([]byte, unigramRecordSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(id))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(score))
	return b
}

func decodeUnigramRecord(b []byte) (int32, float32) {
	id := int32(binary.LittleEndian.Uint32(b[0:4]))
	score := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
	return id, score
}

func encodeBigramRecord(score float32) []byte {
	b := make([]byte, bigramRecordSize)
	binary.LittleEndian.PutUint16(b, float32ToFloat16(score))
	return b
}

func decodeBigramRecord(b []byte) float32 {
	return float16ToFloat32(binary.LittleEndian.Uint16(b))
}

// packBigramKey encodes id1‖id2 as 6 raw bytes: two 24-bit little-endian
// integers, per spec.md §4.1.
func packBigramKey(id1, id2 int32) []byte {
	b := make([]byte, 6)
	b[0] = byte(id1)
	b[1] = byte(id1 >> 8)
	b[2] = byte(id1 >> 16)
	b[3] = byte(id2)
	b[4] = byte(id2 >> 8)
	b[5] = byte(id2 >> 16)
	return b
}

// Build constructs an in-memory LanguageModel from raw entries. Used by
// tests and by any offline model-compilation step; production use loads
// pre-built stores via Load.
func Build(unigrams []UnigramEntry, bigrams, skipBigrams []BigramEntry, defaultEdgeCost float32) (*LanguageModel, error) {
	uPairs := make([]trie.Entry, 0, len(unigrams))
	for _, e := range unigrams {
		uPairs = append(uPairs, trie.Entry{Key: []byte(e.Key), Record: encodeUnigramRecord(e.ID, e.Score)})
	}
	uStore, err := trie.Build(unigramRecordSize, uPairs)
	if err != nil {
		return nil, err
	}

	bPairs := make([]trie.Entry, 0, len(bigrams)+1)
	for _, e := range bigrams {
		bPairs = append(bPairs, trie.Entry{Key: packBigramKey(e.ID1, e.ID2), Record: encodeBigramRecord(e.Score)})
	}
	bPairs = append(bPairs, trie.Entry{Key: []byte(DefaultEdgeCostKey), Record: encodeBigramRecord(defaultEdgeCost)})
	bStore, err := trie.Build(bigramRecordSize, bPairs)
	if err != nil {
		return nil, err
	}

	var skipStore *trie.Store
	if len(skipBigrams) > 0 {
		sPairs := make([]trie.Entry, 0, len(skipBigrams))
		for _, e := range skipBigrams {
			sPairs = append(sPairs, trie.Entry{Key: packBigramKey(e.ID1, e.ID2), Record: encodeBigramRecord(e.Score)})
		}
		skipStore, err = trie.Build(bigramRecordSize, sPairs)
		if err != nil {
			return nil, err
		}
	}

	return newFromStores(uStore, bStore, skipStore), nil
}

func newFromStores(unigram, bigram, skipBigram *trie.Store) *LanguageModel {
	lm := &LanguageModel{
		unigram:         unigram,
		bigram:          bigram,
		skipBigram:      skipBigram,
		defaultEdgeCost: fallbackDefaultEdgeCost,
		unknownUnigram0: fallbackUnknownUnigram0,
		unknownUnigram1: fallbackUnknownUnigram1,
	}
	if rec, ok := bigram.Get([]byte(DefaultEdgeCostKey)); ok {
		lm.defaultEdgeCost = decodeBigramRecord(rec)
	}
	return lm
}

// Load reads unigram/bigram/(optional) skip-bigram stores from a model
// directory, per spec.md §6's file layout. A missing skip_bigram.model
// is not an error (SPEC_FULL.md §4.11's "graceful skip-bigram absence");
// a missing unigram.model or bigram.model is.
func Load(modelDir string, useMmap bool) (*LanguageModel, error) {
	unigram, err := trie.Load(modelDir+"/unigram.model", useMmap)
	if err != nil {
		return nil, &ModelLoadError{Path: modelDir + "/unigram.model", Err: err}
	}
	bigram, err := trie.Load(modelDir+"/bigram.model", useMmap)
	if err != nil {
		return nil, &ModelLoadError{Path: modelDir + "/bigram.model", Err: err}
	}
	var skip *trie.Store
	if s, err := trie.Load(modelDir+"/skip_bigram.model", useMmap); err == nil {
		skip = s
	}
	return newFromStores(unigram, bigram, skip), nil
}

// ModelLoadError is fatal at Engine construction (spec.md §7, kind 1).
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string { return "lm: load " + e.Path + ": " + e.Err.Error() }
func (e *ModelLoadError) Unwrap() error { return e.Err }

// WordCost looks up the unigram cost for a surface/reading pair,
// applying numeric normalisation first if needed (spec.md §4.2 step 1).
// If no entry is found, it returns the unknown-word fallback cost and
// model.UnknownID.
func (lm *LanguageModel) WordCost(surface, reading string) (cost float32, id int32, known bool) {
	key := surface + "/" + reading
	if rec, ok := lm.unigram.Get([]byte(key)); ok {
		id, score := decodeUnigramRecord(rec)
		return score, id, true
	}
	if nkey, ok := normalizeForLM(key); ok {
		if rec, ok := lm.unigram.Get([]byte(nkey)); ok {
			id, score := decodeUnigramRecord(rec)
			return score, id, true
		}
	}
	return lm.UnknownWordCost(isKanjiShortened(surface, reading)), model.UnknownID, false
}

// UnknownWordCost is the fallback unigram cost for a node with no model
// entry. isKanjiShortened selects the cheaper "class 1" cost for surfaces
// shorter (in runes) than their reading -- almost always a real content
// word the model simply never scored (SPEC_FULL.md §4.11, "kanji-
// shortening unigram fallback").
func (lm *LanguageModel) UnknownWordCost(isKanjiShortened bool) float32 {
	if isKanjiShortened {
		return lm.unknownUnigram1
	}
	return lm.unknownUnigram0
}

func isKanjiShortened(surface, reading string) bool {
	return utf8.RuneCountInString(surface) < utf8.RuneCountInString(reading)
}

// BigramCost looks up the cost of the (id1 -> id2) transition. known is
// false when the pair was never observed, in which case cost is the
// model's default edge cost.
func (lm *LanguageModel) BigramCost(id1, id2 int32) (cost float32, known bool) {
	rec, ok := lm.bigram.Get(packBigramKey(id1, id2))
	if !ok {
		return lm.defaultEdgeCost, false
	}
	return decodeBigramRecord(rec), true
}

// SkipBigramCost looks up the (id1 -> _ -> id2) skip-bigram cost. Returns
// 0 if no skip-bigram model is loaded; this applies even across a
// dynamic-marker node's reserved id (SPEC_FULL.md §4.11, Open Question 3).
func (lm *LanguageModel) SkipBigramCost(id1, id2 int32) float32 {
	if lm.skipBigram == nil {
		return 0
	}
	rec, ok := lm.skipBigram.Get(packBigramKey(id1, id2))
	if !ok {
		return 0
	}
	return decodeBigramRecord(rec)
}

// HasSkipBigram reports whether a skip-bigram model was loaded.
func (lm *LanguageModel) HasSkipBigram() bool { return lm.skipBigram != nil }

// Close releases any mmap-backed store resources.
func (lm *LanguageModel) Close() error {
	var firstErr error
	for _, s := range []*trie.Store{lm.unigram, lm.bigram, lm.skipBigram} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
