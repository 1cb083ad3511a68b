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
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/store"
)

func reportTestSuite(runID string, total, passed int) evalcase.EvalSuiteResult {
	return evalcase.EvalSuiteResult{
		RunID:    runID,
		Total:    total,
		Passed:   passed,
		Failed:   total - passed,
		PassRate: float64(passed) / float64(total),
		Duration: time.Second,
		Results: []evalcase.EvalCaseResult{
			{EvalCase: evalcase.EvalCase{ID: "case-1", Category: evalcase.CategoryBasic}, Success: passed > 0},
		},
	}
}

func TestRunReport_LatestRunForSuite(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "evalloom.db")
	s, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), "mysuite", reportTestSuite("run-1", 2, 2)))
	require.NoError(t, s.Close())

	config = &Config{StorePath: storePath}
	reportSuite, reportBaseline, reportLimit = "mysuite", "", 10
	defer func() { config = nil; reportSuite = ""; reportLimit = 0 }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runReport(cmd, nil))
	assert.Contains(t, out.String(), "run run-1")
	assert.Contains(t, out.String(), "100.0% pass rate")
}

func TestRunReport_ByExplicitRunID(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "evalloom.db")
	s, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), "mysuite", reportTestSuite("run-1", 2, 2)))
	require.NoError(t, s.SaveRun(context.Background(), "mysuite", reportTestSuite("run-2", 2, 1)))
	require.NoError(t, s.Close())

	config = &Config{StorePath: storePath}
	reportSuite, reportBaseline, reportLimit = "mysuite", "", 10
	defer func() { config = nil; reportSuite = ""; reportLimit = 0 }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runReport(cmd, []string{"run-1"}))
	assert.Contains(t, out.String(), "run run-1")
}

func TestRunReport_BaselineComparison(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "evalloom.db")
	s, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), "mysuite", reportTestSuite("run-1", 2, 1)))
	require.NoError(t, s.SaveRun(context.Background(), "mysuite", reportTestSuite("run-2", 2, 2)))
	require.NoError(t, s.Close())

	config = &Config{StorePath: storePath}
	reportSuite, reportBaseline, reportLimit = "mysuite", "run-1", 10
	defer func() { config = nil; reportSuite = ""; reportBaseline = ""; reportLimit = 0 }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runReport(cmd, []string{"run-2"}))
	assert.Contains(t, out.String(), "vs baseline run-1")
}

func TestRunReport_NoRunsForSuiteFails(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "evalloom.db")
	s, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	config = &Config{StorePath: storePath}
	reportSuite, reportBaseline, reportLimit = "empty-suite", "", 10
	defer func() { config = nil; reportSuite = "" }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	err = runReport(cmd, nil)
	require.Error(t, err)
}
