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

// Package analysis ties model loading, the dependence analyses and backward
// slicing together for the command-line tools.
package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/pdg"
	"github.com/awslabs/ar-va-tools/analysis/slicing"
	"github.com/bits-and-blooms/bitset"
	"gopkg.in/yaml.v3"
)

// Model is a loaded graph description together with its dependence structure.
// The PDG is built once; every slicing problem runs on its own clone of the
// graph, so its handles stay valid across problems.
type Model struct {
	// Name is the model's file stem, used in logs and report file names.
	Name string

	Graph *cfg.ControlFlowGraph
	PDG   *pdg.ProgramDependenceGraph
}

// LoadModel reads a YAML graph description and builds its program dependence
// graph. The model is named after the description's declared name, falling
// back to the file stem.
func LoadModel(path string, log *config.LogGroup) (*Model, error) {
	start := time.Now()
	desc, err := cfg.LoadGraphDesc(path)
	if err != nil {
		return nil, fmt.Errorf("could not load model %s: %w", path, err)
	}
	g, err := desc.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build model %s: %w", path, err)
	}
	name := desc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m := &Model{Name: name, Graph: g, PDG: pdg.Build(g, log)}
	log.Infof("Loaded model %q: %d blocks, %d statements, %d variables (%.2f s)",
		name, g.NumBlocks(), g.NumStatements(), g.NumVariables(), time.Since(start).Seconds())
	return m, nil
}

// SliceResult is the outcome of one slicing problem.
type SliceResult struct {
	// Problem is the slicing problem the slice answers.
	Problem config.SlicingSpec

	// Sliced is the model's graph reduced to the slice.
	Sliced *cfg.ControlFlowGraph

	// Kept flags the statements the slice retained.
	Kept *bitset.BitSet
}

// RunSlicingProblems solves every slicing problem of the configuration, in
// order. A problem referencing an undeclared variable fails the whole run.
func RunSlicingProblems(m *Model, c *config.Config, log *config.LogGroup) ([]SliceResult, error) {
	results := make([]SliceResult, 0, len(c.SlicingProblems))
	for _, problem := range c.SlicingProblems {
		res, err := RunSlicingProblem(m, problem, log)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RunSlicingProblem solves one slicing problem on a fresh clone of the
// model's graph.
func RunSlicingProblem(m *Model, problem config.SlicingSpec, log *config.LogGroup) (SliceResult, error) {
	start := time.Now()
	v, ok := m.Graph.VariableByName(problem.Variable)
	if !ok {
		return SliceResult{}, fmt.Errorf("slicing problem %q: variable %q not declared in model %s",
			problem.Name(), problem.Variable, m.Name)
	}
	inputs := make([]cfg.VarID, 0, len(problem.AssumedVariables))
	for _, name := range problem.AssumedVariables {
		in, ok := m.Graph.VariableByName(name)
		if !ok {
			return SliceResult{}, fmt.Errorf("slicing problem %q: assumed variable %q not declared in model %s",
				problem.Name(), name, m.Name)
		}
		inputs = append(inputs, in)
	}

	sliced := m.Graph.Clone()
	kept := slicing.BackwardVariableSliceWithVariablesAsInput(sliced, v, inputs, m.PDG, log)
	log.Infof("Slicing problem %q done: kept %d of %d statements (%.2f s)",
		problem.Name(), kept.Count(), m.Graph.NumStatements(), time.Since(start).Seconds())
	return SliceResult{Problem: problem, Sliced: sliced, Kept: kept}, nil
}

// WriteSliceResult renders the sliced graph back into a YAML description and
// writes it under the configured reports directory, returning the path.
func WriteSliceResult(res SliceResult, m *Model, c *config.Config) (string, error) {
	sliceName := fmt.Sprintf("%s-%s", m.Name, res.Problem.Name())
	data, err := yaml.Marshal(cfg.DescOf(res.Sliced, sliceName))
	if err != nil {
		return "", fmt.Errorf("could not render slice %q: %w", res.Problem.Name(), err)
	}
	path := c.ReportPath(sliceName + ".slice.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("could not write slice report: %w", err)
	}
	return path, nil
}
