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

// Effect distinguishes the position just before a statement's transfer
// function from the position just after it.
type Effect uint8

const (
	// Before addresses the state with every prior effect of the block
	// applied, but not the effect at the position itself.
	Before Effect = iota
	// After addresses the state with the effect at the position applied.
	After
)

func (e Effect) String() string {
	if e == Before {
		return "before"
	}
	return "after"
}

// AtIndex returns the effect position at a raw statement index. The
// terminator of a block with n statements sits at index n.
func (e Effect) AtIndex(idx int) EffectIndex {
	return EffectIndex{Index: idx, Effect: e}
}

// AtLocation returns the effect position addressing loc within its block.
func (e Effect) AtLocation(g *cfg.ControlFlowGraph, loc cfg.Location) EffectIndex {
	if loc.Kind == cfg.TerminatorLoc {
		return e.AtIndex(len(g.Block(loc.Block).Statements))
	}
	return e.AtIndex(loc.Index)
}

// EffectIndex is a position inside one basic block: a statement or
// terminator index paired with a Before/After slot. Positions are totally
// ordered per block; the index order flips for backward analyses while the
// Before/After order does not.
type EffectIndex struct {
	Index  int
	Effect Effect
}

func (e EffectIndex) String() string {
	return fmt.Sprintf("%s(%d)", e.Effect, e.Index)
}

// nextInForwardOrder returns the position following e when effects apply
// from the block entry towards the terminator.
func (e EffectIndex) nextInForwardOrder() EffectIndex {
	if e.Effect == Before {
		return EffectIndex{Index: e.Index, Effect: After}
	}
	return EffectIndex{Index: e.Index + 1, Effect: Before}
}

// nextInBackwardOrder returns the position following e when effects apply
// from the terminator towards the block entry.
func (e EffectIndex) nextInBackwardOrder() EffectIndex {
	if e.Effect == Before {
		return EffectIndex{Index: e.Index, Effect: After}
	}
	return EffectIndex{Index: e.Index - 1, Effect: Before}
}
