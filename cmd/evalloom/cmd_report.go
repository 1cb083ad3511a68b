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
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/report"
	"github.com/weftlabs/evalloom/pkg/store"
)

var (
	reportSuite    string
	reportBaseline string
	reportLimit    int
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Summarize a persisted run, or the latest run for a suite",
	Long: `Without a run-id, reports on the most recent run recorded for
--suite. With --baseline, also diffs against another run to surface
newly-passing and newly-failing cases.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportSuite, "suite", "", "suite name to report on (defaults to the test-dir base name)")
	reportCmd.Flags().StringVar(&reportBaseline, "baseline", "", "run-id to compare against")
	reportCmd.Flags().IntVar(&reportLimit, "history", 10, "number of historical runs to use for flakiness/non-determinism metrics")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := store.Open(config.StorePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	suiteName := reportSuite
	if suiteName == "" {
		suiteName = filepath.Base(config.TestDir)
	}

	var suite evalcase.EvalSuiteResult
	if len(args) == 1 {
		suite, err = s.LoadRun(ctx, args[0])
	} else {
		runs, listErr := s.ListRuns(ctx, suiteName, 1)
		if listErr != nil {
			return fmt.Errorf("listing runs: %w", listErr)
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs recorded for suite %q", suiteName)
		}
		suite, err = s.LoadRun(ctx, runs[0].RunID)
	}
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}

	printReportSummary(cmd, suite)

	if reportBaseline != "" {
		baseline, err := s.LoadRun(ctx, reportBaseline)
		if err != nil {
			return fmt.Errorf("loading baseline run: %w", err)
		}
		cmp := report.CompareRuns(suite, baseline)
		fmt.Fprintf(cmd.OutOrStdout(), "\nvs baseline %s: pass rate delta %+.1f%%\n", reportBaseline, cmp.PassRateDelta*100)
		for _, id := range cmp.NewlyFailing {
			fmt.Fprintf(cmd.OutOrStdout(), "  regressed: %s\n", id)
		}
		for _, id := range cmp.NewlyPassing {
			fmt.Fprintf(cmd.OutOrStdout(), "  fixed:     %s\n", id)
		}
	}

	recent, err := s.RecentRuns(ctx, suiteName, reportLimit)
	if err == nil && len(recent) > 1 {
		nd := report.CalculateNonDeterminismMetrics(recent)
		fmt.Fprintf(cmd.OutOrStdout(), "\nnon-determinism over last %d runs: %.1f%% of cases flipped outcome\n", len(recent), (1-nd)*100)
	}

	return nil
}

func printReportSummary(cmd *cobra.Command, suite evalcase.EvalSuiteResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d total, %d passed, %d failed, %d errors (%.1f%% pass rate)\n\n",
		suite.RunID, suite.Total, suite.Passed, suite.Failed, suite.Errors, suite.PassRate*100)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL\tPASSED\tFAILED\tERRORS\tPASS RATE")
	for _, c := range report.SummarizeByCategory(suite.Results) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f%%\n", c.Category, c.Total, c.Passed, c.Failed, c.Errors, c.PassRate*100)
	}
	w.Flush()

	errs := report.SummarizeErrors(suite.Results)
	if len(errs) > 0 {
		fmt.Fprintln(out, "\nerrors:")
		for _, e := range errs {
			fmt.Fprintf(out, "  %s: %d\n", e.ErrorType, e.Count)
			for _, ex := range e.Examples {
				fmt.Fprintf(out, "    - %s\n", ex)
			}
		}
	}
}
