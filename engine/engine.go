// Package engine wires segmenter -> lattice -> resolver -> rerank into
// the library-level conversion API spec.md §6 exposes: convert, commit,
// available_segmentations, select_clause.
//
// Grounded on
// original_source/libakaza/src/engine/bigram_word_viterbi_engine.rs:
// BigramWordViterbiEngine's convert_k_best (resolve k-best then rerank)
// / convert (rerank, take first) / learn (commit through user_data under
// lock) split is carried over directly as Engine.Convert /
// Engine.convertKBest / Engine.Commit. Graceful skip-bigram absence
// (missing skip_bigram.model logged, not fatal) is implemented in
// Load, mirroring BigramWordViterbiEngineBuilder.build's match on the
// skip-bigram load result.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"akaza/dictionary"
	"akaza/lattice"
	"akaza/lm"
	"akaza/model"
	"akaza/numeral"
	"akaza/rerank"
	"akaza/resolver"
	"akaza/segmenter"
	"akaza/userlearn"
)

// defaultKBest is the internal resolver fan-out before reranking
// (original_source uses 10 for the same reason: "enough candidate
// patterns to rerank over").
const defaultKBest = 10

// Engine is the conversion core: immutable LanguageModel + dictionary
// stack, mutable UserLearning, tunable ReRankingWeights. convert() itself
// needs no lock per spec.md §5 (LanguageModel/Dictionary are read-only
// and the resolver builds fresh lattice state per call); the
// lastGraph/lastPaths fields below exist only for the IME-style
// AvailableSegmentations/SelectClause follow-up calls, and are the one
// piece of genuinely mutable per-instance state, so they are guarded by
// mu rather than assuming a single caller goroutine (the evaluate CLI's
// worker pool, for one, shares one Engine across workers).
type Engine struct {
	lm       *lm.LanguageModel
	dict     *dictionary.Merged
	user     *userlearn.Store
	weights  model.ReRankingWeights
	rewriter *numeral.Rewriters

	mu        sync.Mutex
	lastGraph *lattice.Graph // set by Convert, used by SelectClause/AvailableSegmentations
	lastPaths []model.Path
}

// Config bundles what Load needs beyond the model directory itself.
type Config struct {
	ModelDir    string
	UserDataDir string // empty disables user-learning persistence
	SystemDict  string // SKK-JISYO.akaza path; defaults to ModelDir/SKK-JISYO.akaza if empty
	UseMmap     bool
	Weights     model.ReRankingWeights
}

// Load builds an Engine per spec.md §6's model-directory layout. A
// missing unigram.model or bigram.model is a fatal *lm.ModelLoadError;
// a missing skip_bigram.model is not (spec.md §7 / SPEC_FULL.md §4.11).
func Load(cfg Config) (*Engine, error) {
	languageModel, err := lm.Load(cfg.ModelDir, cfg.UseMmap)
	if err != nil {
		return nil, err
	}
	if !languageModel.HasSkipBigram() {
		slog.Info("engine: skip_bigram.model not loaded, skip-bigram scoring disabled", "dir", cfg.ModelDir)
	}

	sysDictPath := cfg.SystemDict
	if sysDictPath == "" {
		sysDictPath = cfg.ModelDir + "/SKK-JISYO.akaza"
	}
	sysDict, err := dictionary.LoadSKK(sysDictPath)
	if err != nil {
		return nil, fmt.Errorf("engine: load system dictionary: %w", err)
	}

	var user *userlearn.Store
	if cfg.UserDataDir != "" {
		user, err = userlearn.Load(cfg.UserDataDir)
		if err != nil {
			slog.Warn("engine: failed to load user-learning data, starting empty", "dir", cfg.UserDataDir, "err", err)
			user = userlearn.New()
		}
	} else {
		user = userlearn.New()
	}

	weights := cfg.Weights
	if weights == (model.ReRankingWeights{}) {
		weights = model.DefaultReRankingWeights()
	}

	return New(languageModel, dictionary.NewMerged(user.Dictionary(), sysDict), user, weights, numeral.New()), nil
}

// New builds an Engine directly from its already-constructed pieces,
// bypassing Load's model-directory/file-layout assumptions. Intended for
// callers that assemble their own LanguageModel/dictionary stack (tests,
// or an embedder with a non-file-based model source).
func New(languageModel *lm.LanguageModel, dict *dictionary.Merged, user *userlearn.Store, weights model.ReRankingWeights, rewriter *numeral.Rewriters) *Engine {
	return &Engine{
		lm:       languageModel,
		dict:     dict,
		user:     user,
		weights:  weights,
		rewriter: rewriter,
	}
}

// Convert runs the full pipeline and returns up to k segmentations, each
// as the ordered per-clause candidate lists spec.md §6 describes. The
// 0th clause candidate of the 0th segmentation is the committed default.
func (e *Engine) Convert(ctx context.Context, hiragana string, k int) ([][]model.ClauseCandidates, error) {
	if k <= 0 {
		k = 1
	}
	paths, g, err := e.convertKBest(hiragana, defaultKBest)
	if err != nil {
		return nil, err
	}
	if len(paths) > k {
		paths = paths[:k]
	}

	out := make([][]model.ClauseCandidates, 0, len(paths))
	for _, p := range paths {
		out = append(out, e.clausesFor(g, p))
	}

	e.mu.Lock()
	e.lastGraph = g
	e.lastPaths = paths
	e.mu.Unlock()

	return out, nil
}

func (e *Engine) convertKBest(hiragana string, k int) ([]model.Path, *lattice.Graph, error) {
	seg := segmenter.Segment(hiragana, e.dict)
	g := lattice.Build(seg, e.dict, e.user, e.lm)
	paths := resolver.Resolve(g, e.lm, e.user, k)
	if len(paths) == 0 {
		// spec.md §7 kind 3: ConversionDegenerate. resolver/lattice/
		// segmenter guarantee BOS->EOS reachability already (the
		// segmenter's unknown-run fallback never disconnects the
		// lattice), so this is defensive: surface the identity path.
		paths = []model.Path{identityPath(hiragana)}
	}
	paths = rerank.Rank(paths, e.weights)
	e.applyMarkers(paths)
	return paths, g, nil
}

func identityPath(hiragana string) model.Path {
	return model.Path{Nodes: []model.WordNode{
		model.NewBOS(),
		{Start: 0, End: len(hiragana), Surface: hiragana, Reading: hiragana, WordID: model.UnknownID},
		model.NewEOS(len(hiragana)),
	}, TokenCount: 1}
}

// applyMarkers materialises any dynamic-marker node's displayed surface
// in place, per spec.md §4.9: this only ever changes Surface, never
// WordID or cost.
func (e *Engine) applyMarkers(paths []model.Path) {
	for pi := range paths {
		for ni := range paths[pi].Nodes {
			n := &paths[pi].Nodes[ni]
			if n.Marker != "" {
				n.Surface = e.rewriter.Materialize(n.Marker, n.Reading)
			}
		}
	}
}

// clausesFor splits a Path into per-clause candidate lists: one clause
// per non-sentinel node of the chosen path, with every lattice node
// sharing that node's (start, end) span offered as an alternative
// candidate surface, per spec.md §4.6's get_candidates shape.
func (e *Engine) clausesFor(g *lattice.Graph, p model.Path) []model.ClauseCandidates {
	var clauses []model.ClauseCandidates
	for _, n := range p.Nodes {
		if n.WordID == model.BOSID || n.WordID == model.EOSID {
			continue
		}
		clauses = append(clauses, model.ClauseCandidates{
			Start:      n.Start,
			End:        n.End,
			Candidates: e.alternativesFor(g, n),
		})
	}
	return clauses
}

// breakdownThreshold is the same heuristic
// original_source/libakaza/src/graph/graph_resolver.rs's get_candidates
// uses: a clause with fewer strict (single-node) alternatives than this
// also gets compound-word breakdown candidates appended.
const breakdownThreshold = 5

func (e *Engine) alternativesFor(g *lattice.Graph, chosen model.WordNode) []model.Candidate {
	if g == nil {
		return []model.Candidate{{Surface: chosen.Surface, Reading: chosen.Reading, Cost: chosen.UnigramCost}}
	}
	var out []model.Candidate
	seen := map[string]bool{}
	// Chosen surface first (spec.md §6: "0th clause candidate ... is the
	// committed default").
	out = append(out, model.Candidate{Surface: chosen.Surface, Reading: chosen.Reading, Cost: chosen.UnigramCost})
	seen[chosen.Surface] = true
	for _, n := range g.NodesEndingAt(chosen.End) {
		if n.Start != chosen.Start || n.End != chosen.End || seen[n.Surface] {
			continue
		}
		seen[n.Surface] = true
		surface := n.Surface
		if n.Marker != "" {
			surface = e.rewriter.Materialize(n.Marker, n.Reading)
		}
		out = append(out, model.Candidate{Surface: surface, Reading: n.Reading, Cost: n.UnigramCost})
	}

	if len(out) < breakdownThreshold {
		for _, c := range resolver.BreakdownCandidates(g, chosen) {
			if seen[c.Surface] {
				continue
			}
			seen[c.Surface] = true
			out = append(out, c)
		}
	}

	return out
}

// AvailableSegmentations returns every k-best Path from the most recent
// Convert call, for an IME front-end offering a "switch segmentation"
// gesture.
func (e *Engine) AvailableSegmentations() []model.Path {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Path, len(e.lastPaths))
	copy(out, e.lastPaths)
	return out
}

// SelectClause re-orders clause j's candidate list within segmentation i
// so the user's chosen alternative becomes the new default, for IME use
// (spec.md §6).
func (e *Engine) SelectClause(i, j int, surface string) ([]model.ClauseCandidates, error) {
	e.mu.Lock()
	g, paths := e.lastGraph, e.lastPaths
	e.mu.Unlock()

	if i < 0 || i >= len(paths) {
		return nil, fmt.Errorf("engine: segmentation index %d out of range", i)
	}
	clauses := e.clausesFor(g, paths[i])
	if j < 0 || j >= len(clauses) {
		return nil, fmt.Errorf("engine: clause index %d out of range", j)
	}
	cands := clauses[j].Candidates
	for idx, c := range cands {
		if c.Surface == surface {
			cands[0], cands[idx] = cands[idx], cands[0]
			break
		}
	}
	return clauses, nil
}

// Commit records a confirmed conversion into UserLearning and flushes it
// to disk, per spec.md §4.8 / §6.
func (e *Engine) Commit(p model.Path) error {
	e.user.Commit(p)
	if err := e.user.Flush(); err != nil {
		// spec.md §7 kind 4: UserLearningIO. In-memory state is kept;
		// the next Commit retries the flush.
		slog.Warn("engine: user-learning flush failed, will retry on next commit", "err", err)
		return nil
	}
	return nil
}

// Close releases mmap-backed model resources.
func (e *Engine) Close() error {
	return e.lm.Close()
}
