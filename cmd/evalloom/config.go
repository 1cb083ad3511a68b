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

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// keyringService is the OS-keychain service name loadSecretsFromKeyring
// reads secrets from.
const keyringService = "evalloom"

// Config is the fully resolved CLI configuration. Priority: flags >
// environment (EVALLOOM_*) > config file > defaults.
type Config struct {
	Parallel               bool    `mapstructure:"parallel"`
	MaxConcurrency         int     `mapstructure:"max_concurrency"`
	TimeoutMs              int     `mapstructure:"timeout_ms"`
	MaxRetries             int     `mapstructure:"max_retries"`
	RetryDelayMs           int     `mapstructure:"retry_delay_ms"`
	RetryBackoffMultiplier float64 `mapstructure:"retry_backoff_multiplier"`
	Trials                 int     `mapstructure:"trials"`
	TrialPassThreshold     float64 `mapstructure:"trial_pass_threshold"`
	TestMatch              []string `mapstructure:"test_match"`
	TestDir                string  `mapstructure:"test_dir"`
	RubricsDir             string  `mapstructure:"rubrics_dir"`
	OutputDir              string  `mapstructure:"output_dir"`
	PreserveWorkspaces     bool    `mapstructure:"preserve_workspaces"`

	AgentType string `mapstructure:"agent_type"`
	AgentCmd  string `mapstructure:"agent_cmd"`
	AgentArgs []string `mapstructure:"agent_args"`
	Template  string `mapstructure:"template"`

	LLMProvider      string `mapstructure:"llm_provider"`
	LLMJudgeModel    string `mapstructure:"llm_judge_model"`
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	AnthropicModel   string `mapstructure:"anthropic_model"`
	BedrockModelID   string `mapstructure:"bedrock_model_id"`
	BedrockRegion    string `mapstructure:"bedrock_region"`
	BedrockProfile   string `mapstructure:"bedrock_profile"`

	// RoutingKeywords maps an agent id to its work-type keywords for the
	// agent-routing judge's rule-5 fallback. Nested maps don't fit a flag
	// cleanly, so this is config-file/env only: set it under
	// `routing_keywords:` in .evalloom.yaml.
	RoutingKeywords map[string][]string `mapstructure:"routing_keywords"`

	StorePath string `mapstructure:"store_path"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Watch bool `mapstructure:"watch"`
}

// setDefaults mirrors the resolved-configuration table.
func setDefaults() {
	viper.SetDefault("parallel", true)
	viper.SetDefault("max_concurrency", 3)
	viper.SetDefault("timeout_ms", 300000)
	viper.SetDefault("max_retries", 2)
	viper.SetDefault("retry_delay_ms", 1000)
	viper.SetDefault("retry_backoff_multiplier", 2.0)
	viper.SetDefault("trials", 1)
	viper.SetDefault("trial_pass_threshold", 0.5)
	viper.SetDefault("test_match", []string{"**/*.eval.json"})
	viper.SetDefault("test_dir", "./__evals__")
	viper.SetDefault("rubrics_dir", "./__evals__/rubrics")
	viper.SetDefault("output_dir", "./__evals__/results")
	viper.SetDefault("preserve_workspaces", false)
	viper.SetDefault("agent_type", "")
	viper.SetDefault("llm_provider", "anthropic")
	viper.SetDefault("anthropic_model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("bedrock_region", "us-west-2")
	viper.SetDefault("bedrock_model_id", "us.anthropic.claude-sonnet-4-5-20250929-v1:0")
	viper.SetDefault("routing_keywords", map[string][]string{})
	viper.SetDefault("store_path", "./__evals__/results/evalloom.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
}

// LoadConfig reads the config file (if any), environment variables, and
// already-bound flags into a Config, then layers in secrets from the OS
// keyring for any credential left unset.
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".evalloom")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetEnvPrefix("EVALLOOM")
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	loadSecretsFromKeyring(&cfg)

	return &cfg, nil
}

// loadSecretsFromKeyring fills in any credential left empty by flags/env/
// config file. Non-fatal: a keyring that is unavailable or lacks the key
// just leaves the field empty, so the provider constructor surfaces a
// clear "no credential" error instead.
func loadSecretsFromKeyring(cfg *Config) {
	if cfg.AnthropicAPIKey == "" {
		if v, err := keyring.Get(keyringService, "anthropic_api_key"); err == nil {
			cfg.AnthropicAPIKey = v
		}
	}
}
