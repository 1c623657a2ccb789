// Worker-pool batch evaluation for the `evaluate` subcommand.
//
// Grounded on the reference tree's tokenize.go channel-pipeline idiom
// (StartTokenizer's ctx.Done()/channel select loop, TokenizeStream's
// per-item goroutine), retargeted from a single streaming tokenizer to a
// fixed worker pool converting many lines concurrently while preserving
// input order in the returned slice.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"akaza/engine"
	"akaza/model"
)

type evalJob struct {
	index int
	line  string
}

type evalResult struct {
	index int
	input string
	segs  [][]model.ClauseCandidates
	err   error
}

// EvalOutcome pairs one input line with its conversion result, in the
// order the line was read.
type EvalOutcome struct {
	Input         string
	Segmentations [][]model.ClauseCandidates
}

// evaluateStream reads newline-delimited hiragana inputs from r and
// converts them concurrently across workers, returning results in input
// order.
func evaluateStream(ctx context.Context, e *engine.Engine, r io.Reader, workers, kBest int) ([]EvalOutcome, error) {
	if workers < 1 {
		workers = 1
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: read input: %w", err)
	}

	jobs := make(chan evalJob, len(lines))
	results := make(chan evalResult, len(lines))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					results <- evalResult{index: job.index, err: ctx.Err()}
					continue
				default:
				}
				segs, err := e.Convert(ctx, job.line, kBest)
				results <- evalResult{index: job.index, input: job.line, segs: segs, err: err}
			}
		}()
	}

	for i, line := range lines {
		jobs <- evalJob{index: i, line: line}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]EvalOutcome, len(lines))
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		out[res.index] = EvalOutcome{Input: res.input, Segmentations: res.segs}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
