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

// Analysis is the contract a dataflow analysis implements for the engine.
// Effect functions mutate the passed state in place and must be monotone
// with respect to the domain's join.
type Analysis[D Domain[D]] interface {
	// BottomValue returns the least domain value, used as the initial fact
	// for every block.
	BottomValue(g *cfg.ControlFlowGraph) D

	// InitBlock adjusts state at the analysis entry of b, before any effect
	// of b applies. It runs transiently on every entry into a block, by the
	// engine and by cursor seeks alike, and is a no-op for most analyses.
	InitBlock(g *cfg.ControlFlowGraph, state D, b cfg.BlockID)

	// ApplyStatementEffect applies the transfer function of statement s at
	// location loc.
	ApplyStatementEffect(g *cfg.ControlFlowGraph, state D, s cfg.StmtID, loc cfg.Location)

	// ApplyTerminatorEffect applies the transfer function of b's terminator.
	ApplyTerminatorEffect(g *cfg.ControlFlowGraph, state D, term *cfg.Terminator, b cfg.BlockID)

	// Direction returns Forward or Backward.
	Direction() Direction
}

// SplitEdgeEffects is an optional capability of forward analyses whose
// transfer depends on branch outcomes, e.g. a conditional-constant analysis
// narrowing the condition variable per arm. The engine applies the edge
// effect to a copy of the block's exit state before joining it into the
// target; backward analyses never receive edge effects.
type SplitEdgeEffects[D Domain[D]] interface {
	Analysis[D]

	// ApplySplitEdgeEffect adjusts state along the from->to edge of a Split
	// terminator taking the given outcome.
	ApplySplitEdgeEffect(g *cfg.ControlFlowGraph, state D, from cfg.BlockID, term *cfg.Terminator, outcome bool, to cfg.BlockID)
}
