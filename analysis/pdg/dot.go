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

package pdg

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph/encoding/dot"
)

// WriteDOT renders the dependence graph in Graphviz DOT form. Control
// dependence edges are dashed and terminator nodes are diamonds.
func WriteDOT(w io.Writer, dg DependenceGraph, name string) error {
	data, err := dot.Marshal(dg, name, "", "  ")
	if err != nil {
		return fmt.Errorf("could not render dependence graph: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("could not write dependence graph: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("could not write dependence graph: %w", err)
	}
	return nil
}
