// Package trie implements TrieScoreStore: a compact, keyed-score
// container backing the unigram/bigram/skip-bigram language models.
//
// The trie itself is a double-array trie (github.com/vcaesar/cedar), the
// Go-ecosystem analogue of the Rust cedarwood crate the reference engine
// this module is modelled on would use. cedar's per-key value is an int
// we control, so it plays the role spec.md assigns to "each key's
// assigned lexicographic id": we assign it ourselves, in Build, as the
// index into an external fixed-width value block — exactly the
// "external value block indexed by id" shape spec.md §4.1 describes.
//
// Persistence does not depend on any cedar-internal serialization format
// (unneeded here: only five cedar methods are used — New/Insert/Get/
// Jump/Value — all attested via other_examples/zouzonghao-glog__engine.go).
// Instead Store.Save writes its own flat file (sorted key table + value
// blob) and Load rebuilds the in-memory trie by replaying inserts, while
// the value blob itself is optionally memory-mapped (github.com/edsrzf/mmap-go,
// grounded on other_examples/SteosOfficial-SteosMorphy__analyzer.go's
// header-then-cast pattern) since it is immutable, fixed-width, and is
// the part of the store worth avoiding a full read of.
package trie

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/vcaesar/cedar"
)

const fileMagic = "AKZT0001"

// Entry is one (key, fixed-width record) pair for Build.
type Entry struct {
	Key    []byte
	Record []byte
}

// Store is a read side TrieScoreStore: exact lookup, prefix-hit
// enumeration and common-prefix search over byte-string keys, with
// fixed-width records.
type Store struct {
	c          *cedar.Cedar
	records    []byte   // recordSize * n, record i at offset i*recordSize
	recordSize int
	keys       [][]byte // sorted keys, index i matches record i; needed by Save

	mm mmap.MMap // non-nil when records is backed by an mmap region
	f  *os.File
}

// RecordSize is the fixed width, in bytes, of every record in the store.
func (s *Store) RecordSize() int { return s.recordSize }

// Build constructs a Store in memory from pairs. Pairs need not be
// pre-sorted; Build sorts them so the on-disk layout is deterministic.
func Build(recordSize int, pairs []Entry) (*Store, error) {
	for _, p := range pairs {
		if len(p.Record) != recordSize {
			return nil, fmt.Errorf("trie: record size mismatch: want %d got %d", recordSize, len(p.Record))
		}
	}
	sorted := make([]Entry, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i].Key) < string(sorted[j].Key)
	})

	c := cedar.New()
	blob := make([]byte, 0, recordSize*len(sorted))
	keys := make([][]byte, len(sorted))
	for i, p := range sorted {
		if err := c.Insert(p.Key, i); err != nil {
			return nil, fmt.Errorf("trie: insert %q: %w", p.Key, err)
		}
		blob = append(blob, p.Record...)
		keys[i] = p.Key
	}
	return &Store{c: c, records: blob, recordSize: recordSize, keys: keys}, nil
}

// Get performs an exact lookup.
func (s *Store) Get(key []byte) (record []byte, ok bool) {
	id, err := s.c.Get(key)
	if err != nil {
		return nil, false
	}
	return s.recordAt(id), true
}

// PrefixHit is one match produced by PrefixHits/CommonPrefixSearch.
type PrefixHit struct {
	MatchedLen int
	Record     []byte
}

// PrefixHits returns every stored key that is a prefix of key (i.e. the
// keys reachable by walking key byte-by-byte from the root), along with
// how many bytes of key they matched. This is spec.md §4.1's
// `common_prefix_search`.
func (s *Store) PrefixHits(key []byte) []PrefixHit {
	var hits []PrefixHit
	id := 0
	for i, b := range key {
		next, err := s.c.Jump([]byte{b}, id)
		if err != nil {
			break
		}
		id = next
		if val, err := s.c.Value(id); err == nil {
			hits = append(hits, PrefixHit{MatchedLen: i + 1, Record: s.recordAt(val)})
		}
	}
	return hits
}

func (s *Store) recordAt(id int) []byte {
	off := id * s.recordSize
	if off < 0 || off+s.recordSize > len(s.records) {
		return nil
	}
	return s.records[off : off+s.recordSize]
}

// Close releases the mmap region, if any.
func (s *Store) Close() error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return err
		}
		s.mm = nil
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// Save writes the store to path: magic, record size, record count,
// sorted keys (each length-prefixed), then the fixed-width value blob.
func (s *Store) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	keys := s.sortedKeys()
	if _, err := w.WriteString(fileMagic); err != nil {
		return closeAndReturn(f, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.recordSize)); err != nil {
		return closeAndReturn(f, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(keys))); err != nil {
		return closeAndReturn(f, err)
	}
	for _, k := range keys {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(k))); err != nil {
			return closeAndReturn(f, err)
		}
		if _, err := w.Write(k); err != nil {
			return closeAndReturn(f, err)
		}
	}
	if _, err := w.Write(s.records); err != nil {
		return closeAndReturn(f, err)
	}
	if err := w.Flush(); err != nil {
		return closeAndReturn(f, err)
	}
	if err := f.Sync(); err != nil {
		return closeAndReturn(f, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func closeAndReturn(f *os.File, err error) error {
	_ = f.Close()
	return err
}

// sortedKeys returns the keys in the same order as their records: cedar
// does not hand keys back out given only an id, so Build/Load both stash
// them alongside the trie.
func (s *Store) sortedKeys() [][]byte { return s.keys }

// Load reads a Store previously written by Save. If useMmap is true the
// value blob is memory-mapped read-only instead of being read into a
// heap buffer.
func Load(path string, useMmap bool) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("trie: read magic: %w", err)
	}
	if string(magic) != fileMagic {
		f.Close()
		return nil, fmt.Errorf("trie: bad magic %q", magic)
	}

	var recordSize, count uint32
	if err := binary.Read(f, binary.LittleEndian, &recordSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("trie: read record size: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		f.Close()
		return nil, fmt.Errorf("trie: read count: %w", err)
	}

	c := cedar.New()
	keys := make([][]byte, count)
	for i := uint32(0); i < count; i++ {
		var klen uint32
		if err := binary.Read(f, binary.LittleEndian, &klen); err != nil {
			f.Close()
			return nil, fmt.Errorf("trie: read key len: %w", err)
		}
		key := make([]byte, klen)
		if _, err := io.ReadFull(f, key); err != nil {
			f.Close()
			return nil, fmt.Errorf("trie: read key: %w", err)
		}
		if err := c.Insert(key, int(i)); err != nil {
			f.Close()
			return nil, fmt.Errorf("trie: rebuild insert %q: %w", key, err)
		}
		keys[i] = key
	}

	valueOff, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &Store{c: c, recordSize: int(recordSize), keys: keys}
	if useMmap {
		region, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("trie: mmap: %w", err)
		}
		s.mm = region
		s.f = f
		s.records = region[valueOff:]
		return s, nil
	}

	rest, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("trie: read records: %w", err)
	}
	s.records = rest
	return s, nil
}
