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

// Package worklist provides the FIFO work queue driving the dependence-based
// analyses. The queue suppresses duplicates with a membership bitset that is
// never cleared: an element enters the queue at most once over the queue's
// lifetime. This keeps traversals of a dependence relation linear in its size
// even when the relation is cyclic, e.g. when a statement inside a loop is
// one of its own transitive dependencies.
package worklist

import (
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/constraints"
)

// WorkQueue is a first-in first-out queue over dense non-negative integer
// handles. Membership is sticky: once an element has been inserted or marked
// visited, later inserts of the same element are rejected, whether or not it
// has been taken out in the meantime.
type WorkQueue[T constraints.Integer] struct {
	deque []T
	set   *bitset.BitSet
	head  int
}

// NewWorkQueue returns an empty queue accepting elements in [0, universe).
func NewWorkQueue[T constraints.Integer](universe int) *WorkQueue[T] {
	return &WorkQueue[T]{set: bitset.New(uint(universe))}
}

// Insert appends x unless it was inserted or marked visited before, and
// reports whether x was accepted.
func (q *WorkQueue[T]) Insert(x T) bool {
	if q.set.Test(uint(x)) {
		return false
	}
	q.set.Set(uint(x))
	q.deque = append(q.deque, x)
	return true
}

// MarkVisited excludes x from the queue without enqueueing it. Later inserts
// of x are rejected as if it had already been processed.
func (q *WorkQueue[T]) MarkVisited(x T) {
	q.set.Set(uint(x))
}

// Take removes and returns the oldest queued element. The second result is
// false when the queue is empty.
func (q *WorkQueue[T]) Take() (T, bool) {
	if q.head >= len(q.deque) {
		var zero T
		return zero, false
	}
	x := q.deque[q.head]
	q.head++
	return x, true
}

// Len returns the number of elements waiting in the queue.
func (q *WorkQueue[T]) Len() int {
	return len(q.deque) - q.head
}

// Visited reports whether x was ever inserted or marked visited.
func (q *WorkQueue[T]) Visited(x T) bool {
	return q.set.Test(uint(x))
}
