// Copyright 2026 The Evalloom Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/weftlabs/evalloom/pkg/judge"
)

var judgesCmd = &cobra.Command{
	Use:   "judges",
	Short: "List the judges available to eval cases",
	Long: `Lists the built-in deductive judges plus, if an LLM provider is
configured, one LLM judge per rubric file under --rubrics-dir.`,
	RunE: runJudges,
}

func init() {
	rootCmd.AddCommand(judgesCmd)
}

func runJudges(cmd *cobra.Command, args []string) error {
	registry := judge.NewRegistry()
	provider, err := buildLLMProvider(config)
	if err != nil {
		provider = nil
	}
	judge.Wire(registry, resolveRunnerConfig(), provider)

	ids := registry.List()
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
