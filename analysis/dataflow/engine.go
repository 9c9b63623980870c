// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataflow

import (
	"fmt"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/internal/funcutil"
)

// Engine computes the fixed point of an analysis over one graph. Engines are
// single-use: construct, optionally bound MaxSweeps, then IterateToFixpoint.
type Engine[D Domain[D]] struct {
	// MaxSweeps bounds the number of sweeps over the block list; exceeding
	// it panics, as only a non-monotone transfer function or an infinite-
	// height domain can keep a sweep from stabilizing. Zero means no bound.
	MaxSweeps int

	g         *cfg.ControlFlowGraph
	analysis  Analysis[D]
	dir       Direction
	entrySets []D
}

// NewEngine returns an engine for a on g with every block seeded at bottom.
func NewEngine[D Domain[D]](g *cfg.ControlFlowGraph, a Analysis[D]) *Engine[D] {
	e := &Engine[D]{
		g:         g,
		analysis:  a,
		dir:       a.Direction(),
		entrySets: make([]D, g.NumBlocks()),
	}
	for i := range e.entrySets {
		e.entrySets[i] = a.BottomValue(g)
	}
	return e
}

// IterateToFixpoint runs the analysis to its least fixed point and returns
// the per-block results. Blocks are visited in reverse postorder for forward
// analyses and postorder for backward ones, swept repeatedly with per-block
// change flags until a sweep changes nothing; any monotone visit order would
// converge to the same fixed point.
func (e *Engine[D]) IterateToFixpoint(log *config.LogGroup) *Results[D] {
	order := e.g.Postorder()
	if e.dir.IsForward() {
		funcutil.Reverse(order)
	}
	log.Debugf("dataflow: %v analysis over %d blocks", e.dir, e.g.NumBlocks())

	// Poor man's worklist: a changed flag per block instead of a queue.
	// Blocks unreachable from the entry are never visited and keep bottom.
	changed := make([]bool, e.g.NumBlocks())
	for _, b := range order {
		changed[b] = true
	}
	state := e.analysis.BottomValue(e.g)
	var scratch D
	if _, ok := e.analysis.(SplitEdgeEffects[D]); ok && e.dir.IsForward() {
		scratch = e.analysis.BottomValue(e.g)
	}

	sweeps := 0
	for dirty := true; dirty; {
		dirty = false
		sweeps++
		if e.MaxSweeps > 0 && sweeps > e.MaxSweeps {
			panic(fmt.Sprintf("dataflow: no fixed point after %d sweeps; transfer function not monotone?", e.MaxSweeps))
		}
		for _, b := range order {
			if !changed[b] {
				continue
			}
			changed[b] = false
			if e.processBlock(b, state, scratch, changed) {
				dirty = true
			}
			log.Tracef("dataflow: sweep %d visited %s, state %v", sweeps, e.g.BlockName(b), state)
		}
	}
	log.Debugf("dataflow: fixed point reached after %d sweeps", sweeps)
	return &Results[D]{analysis: e.analysis, entrySets: e.entrySets}
}

// processBlock recomputes b's effects from its stored entry set and joins
// the outcome into every join target, marking targets that grew. It reports
// whether any target changed.
func (e *Engine[D]) processBlock(b cfg.BlockID, state, scratch D, changed []bool) bool {
	blk := e.g.Block(b)
	state.CopyFrom(e.entrySets[b])
	e.analysis.InitBlock(e.g, state, b)
	n := len(blk.Statements)
	ap := &engineApplier[D]{e: e, b: b, blk: blk, state: state}
	replayRange(e.dir, ap, n, e.dir.First(n), e.dir.Last(n))

	edgeFx, _ := e.analysis.(SplitEdgeEffects[D])
	useEdgeFx := edgeFx != nil && e.dir.IsForward() && blk.Terminator.Kind == cfg.Split

	progressed := false
	e.dir.visitJoinTargets(e.g, b, func(target cfg.BlockID, kind EdgeKind) {
		src := state
		if useEdgeFx && kind != NormalEdge {
			scratch.CopyFrom(state)
			edgeFx.ApplySplitEdgeEffect(e.g, scratch, b, &blk.Terminator, kind == TrueEdge, target)
			src = scratch
		}
		if e.entrySets[target].Join(src) {
			changed[target] = true
			progressed = true
		}
	})
	return progressed
}

type engineApplier[D Domain[D]] struct {
	e     *Engine[D]
	b     cfg.BlockID
	blk   *cfg.BasicBlock
	state D
}

func (ap *engineApplier[D]) statement(idx int) {
	s := ap.blk.Statements[idx]
	ap.e.analysis.ApplyStatementEffect(ap.e.g, ap.state, s, cfg.StatementAt(ap.b, idx))
}

func (ap *engineApplier[D]) terminator() {
	ap.e.analysis.ApplyTerminatorEffect(ap.e.g, ap.state, &ap.blk.Terminator, ap.b)
}
