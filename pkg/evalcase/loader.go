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

package evalcase

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/weftlabs/evalloom/internal/log"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// caseSchema is a permissive JSON Schema for the discriminated eval case
// union: it enforces the common fields and the fields each category
// requires, without forbidding fields belonging to other categories (a
// judge sees those as not-applicable rather than a loader rejecting them).
const caseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "category"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "category": {"enum": ["basic", "tool", "code-gen", "routing", "multi-turn"]},
    "trials": {
      "type": "object",
      "properties": {
        "count": {"type": "integer", "minimum": 1, "maximum": 10},
        "passThreshold": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  },
  "allOf": [
    {
      "if": {"properties": {"category": {"const": "multi-turn"}}},
      "then": {"required": ["turns"]},
      "else": {
        "if": {"properties": {"category": {"enum": ["basic", "tool", "code-gen", "routing"]}}},
        "then": {"required": ["prompt"]}
      }
    }
  ]
}`

var caseSchemaLoader = gojsonschema.NewStringLoader(caseSchema)

// Load walks testDir for files matching any of testMatch's glob patterns,
// validates and parses each as an EvalCase, and applies filter. A file that
// fails schema validation or parsing is skipped with a warning; a failure
// walking the directory itself aborts the load.
func Load(testDir string, testMatch []string, filter Filter) ([]EvalCase, error) {
	var files []string
	err := filepath.WalkDir(testDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(testDir, path)
		if relErr != nil {
			rel = path
		}
		for _, pattern := range testMatch {
			if matchGlob(pattern, rel) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking test directory %s: %w", testDir, err)
	}

	var cases []EvalCase
	for _, path := range files {
		c, err := loadFile(path)
		if err != nil {
			log.Warn("skipping unparseable eval case file", zap.String("path", path), zap.Error(err))
			continue
		}
		cases = append(cases, *c)
	}

	return applyFilter(cases, filter), nil
}

func loadFile(path string) (*EvalCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	jsonBytes := raw
	if isYAML(path) {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml %s: %w", path, err)
		}
		jsonBytes, err = json.Marshal(normalizeYAML(doc))
		if err != nil {
			return nil, fmt.Errorf("converting yaml to json %s: %w", path, err)
		}
	}

	result, err := gojsonschema.Validate(caseSchemaLoader, gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("validating schema for %s: %w", path, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema violations in %s: %s", path, strings.Join(msgs, "; "))
	}

	var c EvalCase
	if err := json.Unmarshal(jsonBytes, &c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &c, nil
}

// normalizeYAML converts map[any]any (as produced by yaml.v3 for nested
// maps in older decode paths) into map[string]any so it marshals to JSON.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = normalizeYAML(v2)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = normalizeYAML(v2)
		}
		return out
	default:
		return v
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// matchGlob implements the subset of "**/*.ext"-style globs the eval case
// loader needs: a "**/" prefix matches any directory depth (including
// none), the remainder is matched with filepath.Match against the base
// name when the pattern has no further directory separators.
func matchGlob(pattern, rel string) bool {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(pattern, "**/") {
		base := strings.TrimPrefix(pattern, "**/")
		if !strings.Contains(base, "/") {
			ok, _ := filepath.Match(base, filepath.Base(rel))
			return ok
		}
	}
	ok, _ := filepath.Match(pattern, rel)
	return ok
}

func applyFilter(cases []EvalCase, filter Filter) []EvalCase {
	var out []EvalCase
	for _, c := range cases {
		if filter.EnabledOnly && !c.IsEnabled() {
			continue
		}
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, c.Category) {
			continue
		}
		if len(filter.IDs) > 0 && !containsString(filter.IDs, c.ID) {
			continue
		}
		if len(filter.Tags) > 0 && !intersects(filter.Tags, c.Tags) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func containsCategory(list []Category, v Category) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
