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

import "github.com/awslabs/ar-va-tools/analysis/cfg"

// ResultsCursor inspects the state of an analysis at arbitrary positions by
// replaying effects from a block's stored entry set. Queries that move
// through a block in analysis order cost amortized constant time each;
// seeking backwards within a block replays from the block entry, which makes
// a whole block of reverse-order queries quadratic in the block size. The
// order blocks are visited in does not matter.
//
// A cursor mutates only its private snapshot, so several cursors may share
// one Results.
type ResultsCursor[D Domain[D]] struct {
	g       *cfg.ControlFlowGraph
	results *Results[D]
	dir     Direction
	state   D
	pos     cursorPosition

	// stateNeedsReset forces the next seek to restart from a block entry.
	// Set at construction, because the snapshot starts at bottom rather
	// than any block's state, and by ApplyCustomEffect, after which stored
	// positions no longer describe the snapshot.
	stateNeedsReset bool
}

// cursorPosition is a block plus the last effect position applied within it;
// hasEffect is false when the snapshot sits at the block entry.
type cursorPosition struct {
	block     cfg.BlockID
	curEffect EffectIndex
	hasEffect bool
}

func blockEntryPos(b cfg.BlockID) cursorPosition {
	return cursorPosition{block: b}
}

// NewCursor returns a cursor over results positioned nowhere: the snapshot
// holds bottom until the first seek.
func NewCursor[D Domain[D]](g *cfg.ControlFlowGraph, results *Results[D]) *ResultsCursor[D] {
	return &ResultsCursor[D]{
		g:               g,
		results:         results,
		dir:             results.analysis.Direction(),
		state:           results.analysis.BottomValue(g),
		pos:             blockEntryPos(g.Entry()),
		stateNeedsReset: true,
	}
}

// Results returns the underlying fixed-point results.
func (c *ResultsCursor[D]) Results() *Results[D] {
	return c.results
}

// Analysis returns the analysis the results were computed with.
func (c *ResultsCursor[D]) Analysis() Analysis[D] {
	return c.results.analysis
}

// Get returns the snapshot for the current position. The value stays owned
// by the cursor: it is valid until the next seek and must not be mutated
// except through ApplyCustomEffect.
func (c *ResultsCursor[D]) Get() D {
	return c.state
}

// Finish returns the snapshot and releases the cursor; the cursor must not
// be used afterwards.
func (c *ResultsCursor[D]) Finish() D {
	s := c.state
	c.results = nil
	return s
}

// SeekToBlockEntry positions the cursor at the analysis entry of b, before
// any effect of b: block entry for forward analyses, block exit for backward
// ones.
func (c *ResultsCursor[D]) SeekToBlockEntry(b cfg.BlockID) {
	c.state.CopyFrom(c.results.EntrySet(b))
	c.results.analysis.InitBlock(c.g, c.state, b)
	c.pos = blockEntryPos(b)
	c.stateNeedsReset = false
}

// SeekToBlockStart positions the cursor at the earliest point of b in
// forward program order: for forward analyses the block entry, for backward
// ones the state after every effect of b has applied.
func (c *ResultsCursor[D]) SeekToBlockStart(b cfg.BlockID) {
	if c.dir.IsForward() {
		c.SeekToBlockEntry(b)
	} else {
		c.seek(After.AtIndex(0), b)
	}
}

// SeekToBlockEnd positions the cursor at the latest point of b in forward
// program order: for forward analyses the state after every effect of b,
// for backward ones the block's analysis entry.
func (c *ResultsCursor[D]) SeekToBlockEnd(b cfg.BlockID) {
	if c.dir.IsForward() {
		c.seek(After.AtIndex(len(c.g.Block(b).Statements)), b)
	} else {
		c.SeekToBlockEntry(b)
	}
}

// SeekToExitBlockEnd positions the cursor after every effect of the exit
// block.
func (c *ResultsCursor[D]) SeekToExitBlockEnd() {
	c.SeekToBlockEnd(c.g.Exit())
}

// SeekBeforeEffect positions the cursor just before the primary effect at
// loc in analysis order: every effect analysis-preceding loc has applied,
// the effect at loc has not.
func (c *ResultsCursor[D]) SeekBeforeEffect(loc cfg.Location) {
	c.seek(Before.AtLocation(c.g, loc), loc.Block)
}

// SeekAfterEffect positions the cursor just after the primary effect at loc
// in analysis order.
func (c *ResultsCursor[D]) SeekAfterEffect(loc cfg.Location) {
	c.seek(After.AtLocation(c.g, loc), loc.Block)
}

// seek moves the snapshot to target within block b: a no-op when already
// there, an incremental replay when the target lies ahead in analysis order,
// and a reset to the block entry plus replay when it lies behind.
func (c *ResultsCursor[D]) seek(target EffectIndex, b cfg.BlockID) {
	if c.stateNeedsReset || c.pos.block != b {
		c.SeekToBlockEntry(b)
	} else if c.pos.hasEffect {
		switch ord := c.dir.Compare(c.pos.curEffect, target); {
		case ord == 0:
			return
		case ord > 0:
			c.SeekToBlockEntry(b)
		}
	}

	// The snapshot now precedes target; replay the missing effects.
	blk := c.g.Block(b)
	n := len(blk.Statements)
	from := c.dir.First(n)
	if c.pos.hasEffect {
		from = c.dir.Next(c.pos.curEffect)
	}
	replayRange(c.dir, &cursorApplier[D]{c: c, b: b, blk: blk}, n, from, target)
	c.pos = cursorPosition{block: b, curEffect: target, hasEffect: true}
}

// ApplyCustomEffect runs f on the snapshot, for effects the engine does not
// model, e.g. a caller-side call-return adjustment or a what-if mutation.
// The snapshot then no longer matches any engine position, so the next seek
// restarts from a block entry even when its target is nearby.
func (c *ResultsCursor[D]) ApplyCustomEffect(f func(a Analysis[D], state D)) {
	f(c.results.analysis, c.state)
	c.stateNeedsReset = true
}

type cursorApplier[D Domain[D]] struct {
	c   *ResultsCursor[D]
	b   cfg.BlockID
	blk *cfg.BasicBlock
}

func (ap *cursorApplier[D]) statement(idx int) {
	s := ap.blk.Statements[idx]
	ap.c.results.analysis.ApplyStatementEffect(ap.c.g, ap.c.state, s, cfg.StatementAt(ap.b, idx))
}

func (ap *cursorApplier[D]) terminator() {
	ap.c.results.analysis.ApplyTerminatorEffect(ap.c.g, ap.c.state, &ap.blk.Terminator, ap.b)
}
