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

// Package dataflow implements the generic fixed-point dataflow engine the
// model analyses are built on.
//
// An analysis implements the Analysis interface: it names a lattice domain
// (any type satisfying Domain), a Direction, and effect functions describing
// how each statement and terminator transforms a domain value. The Engine
// seeds every block with the analysis's bottom value and replays block
// effects in the direction's order, joining results into each block's
// direction targets until nothing changes. The computed Results store one
// set per block: the state at block entry for forward analyses and at block
// exit for backward ones.
//
// Facts at finer granularity than blocks are recovered on demand through a
// ResultsCursor, which replays effects inside a block from the stored set up
// to a requested position. Cursor queries visiting positions in analysis
// order cost amortized constant time per step; seeking against analysis
// order within one block pays a replay from the block entry. Several cursors
// may share one Results value, as cursors only mutate their private
// snapshot.
//
// Analyses whose effects only add and remove elements of a fixed bit
// universe should implement GenKillAnalysis instead. The engine then
// precomputes one gen/kill bitset pair per location and replays transfer
// functions as two bitset operations over the BitDomain.
//
// Positions inside a block are addressed by EffectIndex values: every
// statement index owns a Before and an After slot, and the terminator sits
// one past the last statement. Backward analyses order indexes in reverse
// but keep Before ahead of After, so "before the effect of s in analysis
// order" means the same thing in both directions.
package dataflow
