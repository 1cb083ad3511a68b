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

import "time"

// Config is the fully resolved runtime configuration for a run. Defaults
// match the resolved-configuration table; they are applied by
// cmd/evalloom's viper binding, not here, so library callers can construct
// this directly.
type Config struct {
	Parallel               bool
	MaxConcurrency         int
	Timeout                time.Duration
	MaxRetries             int
	RetryDelay             time.Duration
	RetryBackoffMultiplier float64
	Trials                 int
	TrialPassThreshold     float64
	TestMatch              []string
	TestDir                string
	RubricsDir             string
	OutputDir              string
	PreserveWorkspaces     bool
	LLMJudgeModel          string

	// RoutingKeywords maps an agent id to its "work-type" keywords for
	// agent-routing rule (5). Defaults to empty, in which case rule (5)
	// never fires.
	RoutingKeywords map[string][]string
}

// DefaultConfig returns the resolved-configuration defaults.
func DefaultConfig() Config {
	return Config{
		Parallel:               true,
		MaxConcurrency:         3,
		Timeout:                300 * time.Second,
		MaxRetries:             2,
		RetryDelay:             1 * time.Second,
		RetryBackoffMultiplier: 2,
		Trials:                 1,
		TrialPassThreshold:     0.5,
		TestMatch:              []string{"**/*.eval.json"},
		TestDir:                "./__evals__",
		RubricsDir:             "./__evals__/rubrics",
		OutputDir:              "./__evals__/results",
		PreserveWorkspaces:     false,
		RoutingKeywords:        map[string][]string{},
	}
}

// Filter narrows the cases a run considers.
type Filter struct {
	Categories  []Category
	Tags        []string
	IDs         []string
	EnabledOnly bool
}
