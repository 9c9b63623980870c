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

// Results is the fixed point of an analysis over one graph: for every block,
// the fact at its analysis entry. For a forward analysis that is the state
// at block entry; for a backward one, the state at block exit. Facts at
// finer positions are recovered through a ResultsCursor.
//
// Results values are immutable once computed and may be shared by any number
// of cursors.
type Results[D Domain[D]] struct {
	analysis  Analysis[D]
	entrySets []D
}

// Analysis returns the analysis the results were computed with.
func (r *Results[D]) Analysis() Analysis[D] {
	return r.analysis
}

// EntrySet returns the fact at b's analysis entry. The returned value is
// shared; callers must not mutate it.
func (r *Results[D]) EntrySet(b cfg.BlockID) D {
	return r.entrySets[b]
}
