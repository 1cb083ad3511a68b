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
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/weftlabs/evalloom/pkg/evalcase"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evalloom.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func suiteAt(runID string, at time.Time, passed, total int) evalcase.EvalSuiteResult {
	return evalcase.EvalSuiteResult{
		RunID:     runID,
		Total:     total,
		Passed:    passed,
		Failed:    total - passed,
		PassRate:  float64(passed) / float64(total),
		Timestamp: at,
		Duration:  time.Second,
		Results: []evalcase.EvalCaseResult{
			{EvalCase: evalcase.EvalCase{ID: "case-1", Category: evalcase.CategoryBasic}, Success: passed > 0},
		},
	}
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	suite := suiteAt("run-1", time.Now(), 1, 1)
	require.NoError(t, s.SaveRun(ctx, "mysuite", suite))

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, suite.RunID, loaded.RunID)
	require.Equal(t, suite.Total, loaded.Total)
	require.Len(t, loaded.Results, 1)
}

func TestStore_LoadRun_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.LoadRun(context.Background(), "missing")
	require.Error(t, err)
}

func TestStore_SaveRun_Overwrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first := suiteAt("run-1", time.Now(), 1, 2)
	require.NoError(t, s.SaveRun(ctx, "mysuite", first))

	second := suiteAt("run-1", time.Now(), 2, 2)
	require.NoError(t, s.SaveRun(ctx, "mysuite", second))

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Passed)
}

func TestStore_ListRuns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-1", base, 1, 1)))
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-2", base.Add(time.Minute), 1, 1)))
	require.NoError(t, s.SaveRun(ctx, "othersuite", suiteAt("run-3", base.Add(2*time.Minute), 1, 1)))

	runs, err := s.ListRuns(ctx, "mysuite", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].RunID, "newest first")

	limited, err := s.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestStore_PreviousRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-1", base, 1, 1)))
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-2", base.Add(time.Minute), 1, 1)))

	prev, ok, err := s.PreviousRun(ctx, "mysuite", "run-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "run-1", prev.RunID)

	_, ok, err = s.PreviousRun(ctx, "mysuite", "run-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RecentRuns_OldestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-1", base, 1, 1)))
	require.NoError(t, s.SaveRun(ctx, "mysuite", suiteAt("run-2", base.Add(time.Minute), 1, 1)))

	recent, err := s.RecentRuns(ctx, "mysuite", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "run-1", recent[0].RunID)
	require.Equal(t, "run-2", recent[1].RunID)
}
