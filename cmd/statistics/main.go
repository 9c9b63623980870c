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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/awslabs/ar-va-tools/analysis"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/pdg"
	"github.com/awslabs/ar-va-tools/internal/formatutil"
	"github.com/awslabs/ar-va-tools/internal/funcutil"
)

var (
	configPath = flag.String("config", "", "Config file path, used for its logging options")
	jsonFlag   = flag.Bool("json", false, "Output results as JSON")
	dotPath    = flag.String("dot", "", "Write the model's dependence graph in DOT format to this file")
	verbose    = flag.Bool("verbose", false, "Verbose printing on standard output")
)

const usage = `Measure the dependence structure of a model.
Usage:
    statistics [options] <model.yaml>
Examples:
% statistics -json diode.yaml
`

func main() {
	if err := doMain(); err != nil {
		fmt.Fprintf(os.Stderr, "statistics: %s\n", err)
		os.Exit(1)
	}
}

// report is the JSON shape of the statistics output.
type report struct {
	Model         string   `json:"model"`
	Blocks        int      `json:"blocks"`
	Statements    int      `json:"statements"`
	Terminators   int      `json:"terminators"`
	DataEdges     int      `json:"data-edges"`
	ControlEdges  int      `json:"control-edges"`
	SelfLoops     int      `json:"self-loops"`
	FeedbackLoops []string `json:"feedback-loops"`
}

func doMain() error {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		config.SetGlobalConfig(*configPath)
		loaded, err := config.LoadGlobal()
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)

	logger.Infof(formatutil.Faint("Reading model"))
	model, err := analysis.LoadModel(flag.Arg(0), logger)
	if err != nil {
		return err
	}

	logger.Infof(formatutil.Faint("Measuring dependence structure"))
	dg := pdg.NewDependenceGraph(model.PDG)
	st := pdg.ComputeStats(dg, logger)

	if *dotPath != "" {
		f, err := os.Create(*dotPath)
		if err != nil {
			return fmt.Errorf("could not create DOT file: %w", err)
		}
		defer f.Close()
		if err := pdg.WriteDOT(f, dg, model.Name); err != nil {
			return err
		}
		logger.Infof("Wrote dependence graph to %s", *dotPath)
	}

	loops := funcutil.Map(st.FeedbackLoops, func(cycle []int64) string {
		return pdg.DescribeLoop(dg, cycle)
	})

	if *jsonFlag {
		out := report{
			Model:         model.Name,
			Blocks:        model.Graph.NumBlocks(),
			Statements:    st.Statements,
			Terminators:   st.Terminators,
			DataEdges:     st.DataEdges,
			ControlEdges:  st.ControlEdges,
			SelfLoops:     st.SelfLoops,
			FeedbackLoops: loops,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Model %s: %d blocks, %d statements, %d variables\n",
		formatutil.Sanitize(model.Name), model.Graph.NumBlocks(),
		model.Graph.NumStatements(), model.Graph.NumVariables())
	fmt.Printf("Dependence graph: %d statement nodes, %d terminator nodes\n",
		st.Statements, st.Terminators)
	fmt.Printf("Edges: %d data, %d control, %d self-dependences\n",
		st.DataEdges, st.ControlEdges, st.SelfLoops)

	if len(loops) == 0 {
		fmt.Printf("%s no feedback loops\n", formatutil.Green("OK"))
		return nil
	}
	involved := map[string]bool{}
	for _, group := range st.FeedbackGroups {
		for _, id := range group {
			if s, ok := dg.StatementOf(id); ok {
				involved[model.Graph.VariableName(model.Graph.Statement(s).Dest)] = true
			}
		}
	}
	fmt.Printf("%s %d loops over variables %s\n", formatutil.Yellow("FEEDBACK"),
		len(loops), formatutil.Sanitize(strings.Join(funcutil.SetToOrderedSlice(involved), ", ")))
	for _, loop := range loops {
		fmt.Printf("  %s\n", formatutil.Sanitize(loop))
	}
	return nil
}
