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
)

// EdgeKind labels the edge a state is propagated along.
type EdgeKind uint8

const (
	// NormalEdge is an unconditional edge, or any edge of a backward
	// analysis.
	NormalEdge EdgeKind = iota
	// TrueEdge leaves a Split terminator on its true outcome.
	TrueEdge
	// FalseEdge leaves a Split terminator on its false outcome.
	FalseEdge
)

// Direction fixes the traversal order of an analysis. The two
// implementations, Forward and Backward, are stateless; analyses return one
// of them from their Direction method. The interface is sealed: positions
// and join targets are direction-specific in ways the engine and cursor
// must agree on exactly.
type Direction interface {
	IsForward() bool
	// First returns the initial effect position of a block with
	// numStatements statements, in analysis order.
	First(numStatements int) EffectIndex
	// Next returns the position following cur in analysis order.
	Next(cur EffectIndex) EffectIndex
	// Last returns the final effect position in analysis order.
	Last(numStatements int) EffectIndex
	// Compare orders a and b in analysis order: it returns a negative
	// number when a precedes b, zero when they are equal, and a positive
	// number when a follows b.
	Compare(a, b EffectIndex) int

	fmt.Stringer

	// visitJoinTargets calls visit for every block the computed state of b
	// flows into: successors for forward analyses (with branch outcomes on
	// Split edges), predecessors for backward ones.
	visitJoinTargets(g *cfg.ControlFlowGraph, b cfg.BlockID, visit func(target cfg.BlockID, kind EdgeKind))
}

var (
	// Forward replays effects from block entry to terminator and joins exit
	// states into successors.
	Forward Direction = forward{}
	// Backward replays effects from terminator to block entry and joins
	// entry states into predecessors.
	Backward Direction = backward{}
)

type forward struct{}

func (forward) IsForward() bool { return true }
func (forward) String() string  { return "forward" }

func (forward) First(int) EffectIndex {
	return Before.AtIndex(0)
}

func (forward) Next(cur EffectIndex) EffectIndex {
	return cur.nextInForwardOrder()
}

func (forward) Last(numStatements int) EffectIndex {
	return After.AtIndex(numStatements)
}

func (forward) Compare(a, b EffectIndex) int {
	if c := compareInt(a.Index, b.Index); c != 0 {
		return c
	}
	return compareInt(int(a.Effect), int(b.Effect))
}

func (forward) visitJoinTargets(g *cfg.ControlFlowGraph, b cfg.BlockID, visit func(cfg.BlockID, EdgeKind)) {
	term := &g.Block(b).Terminator
	switch term.Kind {
	case cfg.Goto:
		visit(term.Target, NormalEdge)
	case cfg.Split:
		visit(term.True, TrueEdge)
		visit(term.False, FalseEdge)
	}
}

type backward struct{}

func (backward) IsForward() bool { return false }
func (backward) String() string  { return "backward" }

func (backward) First(numStatements int) EffectIndex {
	return Before.AtIndex(numStatements)
}

func (backward) Next(cur EffectIndex) EffectIndex {
	return cur.nextInBackwardOrder()
}

func (backward) Last(int) EffectIndex {
	return After.AtIndex(0)
}

// Compare reverses the index order but not the Before/After order: the
// effect at an index is the same transfer function under both directions,
// so Before still precedes After in analysis order.
func (backward) Compare(a, b EffectIndex) int {
	if c := compareInt(b.Index, a.Index); c != 0 {
		return c
	}
	return compareInt(int(a.Effect), int(b.Effect))
}

func (backward) visitJoinTargets(g *cfg.ControlFlowGraph, b cfg.BlockID, visit func(cfg.BlockID, EdgeKind)) {
	for _, pred := range g.Predecessors(b) {
		visit(pred, NormalEdge)
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// effectApplier is the non-generic hook replayRange drives, so Direction
// logic stays independent of the domain type parameter.
type effectApplier interface {
	// statement applies the primary effect of the idx-th statement.
	statement(idx int)
	// terminator applies the primary effect of the block's terminator.
	terminator()
}

// replayRange applies the primary effects of every position in [from, to],
// walking in d's analysis order. A position's primary effect triggers on its
// After slot; Before slots only mark boundaries. The range must not be
// inverted.
func replayRange(d Direction, ap effectApplier, numStatements int, from, to EffectIndex) {
	if d.Compare(from, to) > 0 {
		panic(fmt.Sprintf("dataflow: inverted effect range %v..%v in %v order", from, to, d))
	}
	pos := from
	for {
		if pos.Effect == After {
			if pos.Index == numStatements {
				ap.terminator()
			} else {
				ap.statement(pos.Index)
			}
		}
		if pos == to {
			return
		}
		pos = d.Next(pos)
	}
}
