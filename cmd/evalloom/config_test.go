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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 300000, cfg.TimeoutMs)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "./__evals__", cfg.TestDir)
}

func TestLoadConfig_ExplicitConfigFileOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evalloom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max_concurrency: 9\nllm_provider: bedrock\n"), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxConcurrency)
	assert.Equal(t, "bedrock", cfg.LLMProvider)
}

func TestLoadConfig_ReadsRoutingKeywordsFromConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evalloom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("routing_keywords:\n  planner:\n    - design\n    - plan\n"), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"design", "plan"}, cfg.RoutingKeywords["planner"])
}

func TestLoadConfig_MissingExplicitConfigFileFails(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
