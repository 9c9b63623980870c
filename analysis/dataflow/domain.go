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
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Domain constrains the lattice values an analysis computes over. Domain
// values are always manipulated through pointers; D instantiates to that
// pointer type. The engine requires Join to be monotone and the lattice to
// have finite height, otherwise the fixpoint iteration cannot terminate.
type Domain[D any] interface {
	// Join widens the receiver to the least upper bound of itself and other
	// and reports whether the receiver changed.
	Join(other D) bool
	// CopyFrom overwrites the receiver with a copy of other.
	CopyFrom(other D)
}

// BitDomain is a dense bitset over a fixed universe of integer handles,
// ordered by set inclusion with union as join. It is the domain of every
// gen-kill analysis.
type BitDomain struct {
	bits *bitset.BitSet
}

// NewBitDomain returns the empty set over [0, universe).
func NewBitDomain(universe int) *BitDomain {
	return &BitDomain{bits: bitset.New(uint(universe))}
}

// Join unions other into the receiver and reports whether it grew.
func (d *BitDomain) Join(other *BitDomain) bool {
	if d.bits.IsSuperSet(other.bits) {
		return false
	}
	d.bits.InPlaceUnion(other.bits)
	return true
}

// CopyFrom overwrites the receiver with a copy of other.
func (d *BitDomain) CopyFrom(other *BitDomain) {
	other.bits.CopyFull(d.bits)
}

// Contains reports whether x is in the set.
func (d *BitDomain) Contains(x int) bool { return d.bits.Test(uint(x)) }

// Insert adds x to the set.
func (d *BitDomain) Insert(x int) { d.bits.Set(uint(x)) }

// Remove deletes x from the set.
func (d *BitDomain) Remove(x int) { d.bits.Clear(uint(x)) }

// Gen adds x; BitDomain doubles as a GenKill accumulator so analyses can be
// replayed directly onto a state.
func (d *BitDomain) Gen(x int) { d.bits.Set(uint(x)) }

// Kill removes x.
func (d *BitDomain) Kill(x int) { d.bits.Clear(uint(x)) }

// Count returns the number of elements in the set.
func (d *BitDomain) Count() int { return int(d.bits.Count()) }

// Equal reports whether two sets hold the same elements.
func (d *BitDomain) Equal(other *BitDomain) bool { return d.bits.Equal(other.bits) }

// ForEach calls f on every element in increasing order.
func (d *BitDomain) ForEach(f func(int)) {
	for i, ok := d.bits.NextSet(0); ok; i, ok = d.bits.NextSet(i + 1) {
		f(int(i))
	}
}

func (d *BitDomain) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	d.ForEach(func(x int) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%d", x)
	})
	sb.WriteByte('}')
	return sb.String()
}
