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

package judge

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const goldenSimilarityThreshold = 0.85

// GoldenFileResult is the outcome of comparing agent output against a
// stored golden transcript. It never fails a judge on its own; it only
// adds a supplementary similarity signal to pattern-match's reasoning.
type GoldenFileResult struct {
	Matched         bool
	SimilarityScore float64
	Diff            string
}

// compareWithGoldenFile diffs actualOutput against the golden file at
// goldenFilePath, normalizing whitespace before scoring similarity.
func compareWithGoldenFile(goldenFilePath, actualOutput string) (GoldenFileResult, error) {
	goldenData, err := os.ReadFile(goldenFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return GoldenFileResult{Diff: fmt.Sprintf("golden file not found: %s", goldenFilePath)}, nil
		}
		return GoldenFileResult{}, fmt.Errorf("reading golden file %s: %w", goldenFilePath, err)
	}

	golden := string(goldenData)
	similarity := similarityScore(normalizeWhitespace(golden), normalizeWhitespace(actualOutput))
	matched := similarity >= goldenSimilarityThreshold

	var diff string
	if !matched {
		differ := diffmatchpatch.New()
		diffs := differ.DiffMain(golden, actualOutput, false)
		diff = differ.DiffPrettyText(diffs)
	}

	return GoldenFileResult{Matched: matched, SimilarityScore: similarity, Diff: diff}, nil
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// similarityScore is the fraction of total diff length attributable to
// text common to both inputs.
func similarityScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	differ := diffmatchpatch.New()
	diffs := differ.DiffMain(a, b, false)

	var common, total int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			common += len(d.Text)
			total += len(d.Text)
		case diffmatchpatch.DiffInsert, diffmatchpatch.DiffDelete:
			total += len(d.Text)
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(common) / float64(total)
}
