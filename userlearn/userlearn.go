// Package userlearn implements UserLearning (spec.md §4.8): per-user
// unigram/bigram occurrence counts persisted as two append-oriented text
// files, plus an overlay user dictionary. commit() on a confirmed
// conversion increments counts for every node and adjacent pair; cost
// lookups take the user count over the system cost whenever the key is
// present.
//
// Grounded on
// original_source/libakaza/src/user_side_data/{unigram_user_stats,bigram_user_stats}.rs:
// the word_count map keyed by "surface/reading" (unigram) or
// "key1\tkey2" (bigram), and the unique_words/total_words bookkeeping
// that feeds the cost formula, are carried over directly. calc_cost
// itself was not present anywhere in the retrieved reference pack, so
// its formula is taken from spec.md §4.8 verbatim:
// -log10((count+alpha)/(total+alpha*V)).
package userlearn

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"akaza/dictionary"
	"akaza/model"
)

// alpha is the additive-smoothing constant in spec.md §4.8's cost
// formula.
const alpha = 0.5

// Store holds the mutable user-learning state: unigram/bigram counts and
// the overlay user dictionary. Safe for concurrent commit() calls
// (spec.md §5: "UserLearning is the only mutable shared resource").
type Store struct {
	mu sync.Mutex

	unigramCount map[string]uint32
	uniqueWords  uint32
	totalWords   uint32

	bigramCount  map[string]uint32
	uniqueBigram uint32
	totalBigram  uint32

	dict *dictionary.Dictionary

	unigramPath string
	bigramPath  string
	dictPath    string
}

// New builds an empty in-memory Store, for tests or first-run use.
func New() *Store {
	return &Store{
		unigramCount: map[string]uint32{},
		bigramCount:  map[string]uint32{},
		dict:         dictionary.New(),
	}
}

// Load reads the unigram/bigram frequency files and the user dictionary
// from dir, tolerating any of the three being absent (first run).
func Load(dir string) (*Store, error) {
	s := New()
	s.unigramPath = dir + "/unigram.v1.txt"
	s.bigramPath = dir + "/bigram.v1.txt"
	s.dictPath = dir + "/SKK-JISYO.user"

	if err := s.loadCounts(s.unigramPath, s.unigramCount, &s.uniqueWords, &s.totalWords); err != nil {
		return nil, err
	}
	if err := s.loadCounts(s.bigramPath, s.bigramCount, &s.uniqueBigram, &s.totalBigram); err != nil {
		return nil, err
	}
	if d, err := dictionary.LoadSKK(s.dictPath); err == nil {
		s.dict = d
	}
	return s, nil
}

func (s *Store) loadCounts(path string, into map[string]uint32, unique, total *uint32) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.LastIndex(line, "\t")
		if idx < 0 {
			continue
		}
		key, countStr := line[:idx], line[idx+1:]
		count, err := strconv.ParseUint(countStr, 10, 32)
		if err != nil {
			continue
		}
		if _, exists := into[key]; !exists {
			*unique++
		}
		into[key] = uint32(count)
		*total += uint32(count)
	}
	return scanner.Err()
}

// Commit increments unigram counts for every non-sentinel node in p and
// bigram counts for every adjacent pair, per spec.md §4.8.
func (s *Store) Commit(p model.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *model.WordNode
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if n.WordID == model.BOSID || n.WordID == model.EOSID {
			prev = nil
			continue
		}
		s.bumpUnigram(n.Key())
		if prev != nil {
			s.bumpBigram(prev.Key(), n.Key())
		}
		prev = n
	}
}

func (s *Store) bumpUnigram(key string) {
	if _, ok := s.unigramCount[key]; !ok {
		s.uniqueWords++
	}
	s.unigramCount[key]++
	s.totalWords++
}

func (s *Store) bumpBigram(key1, key2 string) {
	key := key1 + "\t" + key2
	if _, ok := s.bigramCount[key]; !ok {
		s.uniqueBigram++
	}
	s.bigramCount[key]++
	s.totalBigram++
}

// UnigramCost returns the user-learned cost for key and whether the key
// is known, per spec.md §4.8's formula -log10((count+alpha)/(total+alpha*V)).
func (s *Store) UnigramCost(key string) (cost float32, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.unigramCount[key]
	if !ok {
		return 0, false
	}
	return calcCost(count, s.uniqueWords, s.totalWords), true
}

// BigramCost returns the user-learned edge cost for (key1, key2).
func (s *Store) BigramCost(key1, key2 string) (cost float32, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.bigramCount[key1+"\t"+key2]
	if !ok {
		return 0, false
	}
	return calcCost(count, s.uniqueBigram, s.totalBigram), true
}

func calcCost(count, unique, total uint32) float32 {
	v := float64(unique)
	num := float64(count) + alpha
	den := float64(total) + alpha*v
	return float32(-math.Log10(num / den))
}

// Dictionary returns the overlay user dictionary, for merging into the
// Engine's dictionary.Merged stack.
func (s *Store) Dictionary() *dictionary.Dictionary {
	return s.dict
}

// LearnSurface records a reading->surface pair directly into the user
// dictionary overlay (e.g. after a manual edit), independent of Commit.
func (s *Store) LearnSurface(reading, surface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dict.Add(reading, []string{surface})
}

// Flush atomically persists counts and the user dictionary to disk
// (write to temp file, fsync, rename), per spec.md §4.8.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unigramPath != "" {
		if err := writeCountsAtomic(s.unigramPath, s.unigramCount); err != nil {
			return err
		}
	}
	if s.bigramPath != "" {
		if err := writeCountsAtomic(s.bigramPath, s.bigramCount); err != nil {
			return err
		}
	}
	if s.dictPath != "" {
		if err := s.dict.Save(s.dictPath); err != nil {
			return err
		}
	}
	return nil
}

func writeCountsAtomic(path string, counts map[string]uint32) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	var writeErr error
	for key, count := range counts {
		if _, writeErr = fmt.Fprintf(w, "%s\t%d\n", key, count); writeErr != nil {
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
