// Command akaza is the batch CLI wrapping the conversion core (spec.md
// §6): `check` converts a single input and exits non-zero on failure;
// `evaluate` streams many inputs through a worker pool and reports
// results as text or JSON.
//
// Grounded on
// _examples/SeamusWaldron-ehdc-llpg-address-matching/cmd/matcher/main.go's
// cobra command-tree shape (root command + subcommand constructors, each
// subcommand owning its own flag set).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"

	"akaza/dictionary"
	"akaza/engine"
	"akaza/logger"
	"akaza/model"
)

// exit codes per spec.md §6.
const (
	exitOK      = 0
	exitIOError = 1
	exitUsage   = 2
)

type cliFlags struct {
	modelDir            string
	userData            string
	bigramWeight        float64
	lengthWeight        float64
	unknownBigramWeight float64
	skipBigramWeight    float64
	kBest               int
	format              string
	candidates          int
	traceDir            string
	jmdictPath          string
	enamdictPath        string
}

// glossaryEnabled reports whether gloss enrichment was requested via
// --jmdict/--enamdict.
func (f cliFlags) glossaryEnabled() bool {
	return f.jmdictPath != "" || f.enamdictPath != ""
}

// loadGlossary installs a process-wide Glossary (dictionary.SetGlobal)
// when gloss enrichment was requested, so printJSON's dictionary.Enrich
// calls resolve against it. A no-op when neither path flag was set.
func (f cliFlags) loadGlossary() {
	if !f.glossaryEnabled() {
		return
	}
	dictionary.SetGlobal(dictionary.LoadGlossary(f.jmdictPath, f.enamdictPath))
}

func (f cliFlags) weights() model.ReRankingWeights {
	return model.ReRankingWeights{
		BigramWeight:        float32(f.bigramWeight),
		LengthWeight:        float32(f.lengthWeight),
		UnknownBigramWeight: float32(f.unknownBigramWeight),
		SkipBigramWeight:    float32(f.skipBigramWeight),
	}
}

func (f cliFlags) loadEngine() (*engine.Engine, error) {
	if err := prepareTraceDir(f.traceDir); err != nil {
		return nil, fmt.Errorf("akaza: prepare trace dir: %w", err)
	}
	return engine.Load(engine.Config{
		ModelDir:    f.modelDir,
		UserDataDir: f.userData,
		UseMmap:     true,
		Weights:     f.weights(),
	})
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := &cliFlags{}
	root := &cobra.Command{
		Use:           "akaza",
		Short:         "Statistical kana-to-kanji conversion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.modelDir, "model-dir", "", "path to the model directory (required)")
	root.PersistentFlags().StringVar(&flags.userData, "user-data", "", "path to the user data directory (optional)")
	root.PersistentFlags().Float64Var(&flags.bigramWeight, "bigram-weight", float64(model.DefaultReRankingWeights().BigramWeight), "reranking bigram weight")
	root.PersistentFlags().Float64Var(&flags.lengthWeight, "length-weight", float64(model.DefaultReRankingWeights().LengthWeight), "reranking length weight")
	root.PersistentFlags().Float64Var(&flags.unknownBigramWeight, "unknown-bigram-weight", float64(model.DefaultReRankingWeights().UnknownBigramWeight), "reranking unknown-bigram weight")
	root.PersistentFlags().Float64Var(&flags.skipBigramWeight, "skip-bigram-weight", float64(model.DefaultReRankingWeights().SkipBigramWeight), "reranking skip-bigram weight")
	root.PersistentFlags().IntVar(&flags.kBest, "k-best", 5, "number of segmentations to return")
	root.PersistentFlags().StringVar(&flags.format, "format", "text", "output format: text|json")
	root.PersistentFlags().IntVar(&flags.candidates, "candidates", 3, "candidates per clause to display")
	root.PersistentFlags().StringVar(&flags.traceDir, "trace-dir", "", "optional directory to write per-call conversion traces as JSON")
	root.PersistentFlags().StringVar(&flags.jmdictPath, "jmdict", "", "optional JMdict XML path for --format json gloss enrichment")
	root.PersistentFlags().StringVar(&flags.enamdictPath, "enamdict", "", "optional ENAMDICT XML path for --format json gloss enrichment")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	root.AddCommand(newCheckCmd(flags))
	root.AddCommand(newEvaluateCmd(flags))
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, ok := err.(*usageError); ok {
			return exitUsage
		}
		return exitIOError
	}
	return exitOK
}

// usageError marks an argument-validation failure (exit code 2) as
// distinct from an I/O or model-load failure (exit code 1), per
// spec.md §6.
type usageError struct{ error }

func newCheckCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [hiragana]",
		Short: "Convert one hiragana string and print the top segmentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.modelDir == "" {
				return &usageError{fmt.Errorf("--model-dir is required")}
			}
			if len(args) != 1 {
				return &usageError{fmt.Errorf("check requires exactly one hiragana argument")}
			}

			flags.loadGlossary()

			e, err := flags.loadEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			segs, err := e.Convert(cmd.Context(), args[0], flags.kBest)
			if err != nil {
				return err
			}
			traceConversion(flags.traceDir, args[0], segs)
			return printSegmentations(cmd.OutOrStdout(), segs, flags)
		},
	}
}

// traceSeq numbers conversion traces within one process run.
var traceSeq atomic.Int64

// traceConversion writes a conversion trace to dir/trace_<n>.json when dir
// is non-empty, logging a warning rather than failing the command on a
// write error (tracing is a diagnostic aid, not load-bearing). The
// directory is expected to already exist (see prepareTraceDir).
func traceConversion(dir, input string, segs [][]model.ClauseCandidates) {
	if dir == "" {
		return
	}
	id := fmt.Sprintf("trace_%d", traceSeq.Add(1))
	if err := logger.LogJSON(dir, id, map[string]interface{}{
		"input":         input,
		"segmentations": segs,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "akaza: failed to write conversion trace:", err)
	}
}

// prepareTraceDir clears any stale trace files from a previous run, per
// the reference tree's InitLogs "clear on startup" behaviour.
func prepareTraceDir(dir string) error {
	if dir == "" {
		return nil
	}
	return logger.InitLogs(dir)
}

func newEvaluateCmd(flags *cliFlags) *cobra.Command {
	var workers int
	var inputPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Convert many hiragana inputs (one per line) through a worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.modelDir == "" {
				return &usageError{fmt.Errorf("--model-dir is required")}
			}

			flags.loadGlossary()

			e, err := flags.loadEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			in := os.Stdin
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("evaluate: open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			results, err := evaluateStream(cmd.Context(), e, in, workers, flags.kBest)
			if err != nil {
				return err
			}
			for _, res := range results {
				traceConversion(flags.traceDir, res.Input, res.Segmentations)
				if err := printSegmentations(cmd.OutOrStdout(), res.Segmentations, flags); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "worker pool size for batch evaluation")
	cmd.Flags().StringVar(&inputPath, "input", "", "input file, one hiragana string per line (default: stdin)")
	return cmd
}

func printSegmentations(w io.Writer, segs [][]model.ClauseCandidates, flags *cliFlags) error {
	switch flags.format {
	case "json":
		return printJSON(w, segs, flags.candidates, flags.glossaryEnabled())
	default:
		return printText(w, segs, flags.candidates)
	}
}

type jsonCandidate struct {
	Surface string                 `json:"surface"`
	Reading string                 `json:"reading"`
	Cost    float32                `json:"cost"`
	Gloss   *model.DictionaryEntry `json:"gloss,omitempty"`
}

type jsonClause struct {
	Candidates []jsonCandidate `json:"candidates"`
}

type jsonSegmentation struct {
	Clauses []jsonClause `json:"clauses"`
	Cost    float32      `json:"cost"`
}

type jsonOutput struct {
	Segmentations []jsonSegmentation `json:"segmentations"`
}

// printJSON renders segs as JSON. When withGloss is set (--jmdict/--enamdict
// was passed), the 0th candidate of each clause is enriched with a
// dictionary.Enrich gloss for manual review (spec.md's Non-goals exclude
// dictionary editing tools, not an evaluation aid — SPEC_FULL.md §4.10).
func printJSON(w io.Writer, segs [][]model.ClauseCandidates, candidateLimit int, withGloss bool) error {
	out := jsonOutput{}
	for _, seg := range segs {
		js := jsonSegmentation{}
		var cost float32
		for _, clause := range seg {
			jc := jsonClause{}
			for i, c := range clause.Candidates {
				if i >= candidateLimit {
					break
				}
				jcand := jsonCandidate{Surface: c.Surface, Reading: c.Reading, Cost: c.Cost}
				if withGloss && i == 0 {
					gloss := dictionary.Enrich(c.Surface, c.Reading)
					jcand.Gloss = &gloss
				}
				jc.Candidates = append(jc.Candidates, jcand)
			}
			if len(clause.Candidates) > 0 {
				cost += clause.Candidates[0].Cost
			}
			js.Clauses = append(js.Clauses, jc)
		}
		js.Cost = cost
		out.Segmentations = append(out.Segmentations, js)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func printText(w io.Writer, segs [][]model.ClauseCandidates, candidateLimit int) error {
	for i, seg := range segs {
		var surface string
		for _, clause := range seg {
			if len(clause.Candidates) > 0 {
				surface += clause.Candidates[0].Surface
			}
		}
		if _, err := fmt.Fprintf(w, "%d: %s\n", i, surface); err != nil {
			return err
		}
		for _, clause := range seg {
			for j, c := range clause.Candidates {
				if j >= candidateLimit {
					break
				}
				if _, err := fmt.Fprintf(w, "   [%d,%d) %s (%s) cost=%.3f\n", clause.Start, clause.End, c.Surface, c.Reading, c.Cost); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
