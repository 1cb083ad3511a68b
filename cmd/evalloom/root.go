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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/weftlabs/evalloom/internal/log"
)

var (
	cfgFile string
	config  *Config
)

var rootCmd = &cobra.Command{
	Use:   "evalloom",
	Short: "Declarative evaluation harness for AI coding agents",
	Long: `evalloom drives an AI agent through a suite of declarative eval
cases — prompts, expected tool calls, generated-code checks, routing
decisions, and multi-turn conversations — and judges the results with a
mix of deterministic checks and an LLM judge.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .evalloom.yaml)")

	rootCmd.PersistentFlags().Bool("parallel", true, "run cases concurrently")
	rootCmd.PersistentFlags().Int("max-concurrency", 3, "max concurrent cases when --parallel")
	rootCmd.PersistentFlags().Int("timeout-ms", 300000, "per-case agent invocation timeout in milliseconds")
	rootCmd.PersistentFlags().Int("max-retries", 2, "retries on case failure before giving up")
	rootCmd.PersistentFlags().Int("trials", 1, "trials per case (>1 smooths non-determinism)")
	rootCmd.PersistentFlags().Float64("trial-pass-threshold", 0.5, "fraction of trials that must pass")
	rootCmd.PersistentFlags().String("test-dir", "./__evals__", "directory to load eval case files from")
	rootCmd.PersistentFlags().StringSlice("test-match", []string{"**/*.eval.json"}, "glob patterns selecting eval case files")
	rootCmd.PersistentFlags().String("rubrics-dir", "./__evals__/rubrics", "directory of LLM judge rubric markdown files")
	rootCmd.PersistentFlags().String("output-dir", "./__evals__/results", "output directory recorded in the run config; workspace and run-history locations do not depend on it")
	rootCmd.PersistentFlags().Bool("preserve-workspaces", false, "recorded in the run config; workspaces are removed after judging whether or not it is set")

	rootCmd.PersistentFlags().String("agent-type", "", "session-log format to mine for tool calls (claude-code, openai-agents, vercel-ai)")
	rootCmd.PersistentFlags().String("agent-cmd", "", "external command to invoke as the agent under test")
	rootCmd.PersistentFlags().StringSlice("agent-args", nil, "arguments for --agent-cmd ({workdir}/{evalId}/{sessionId} substituted)")
	rootCmd.PersistentFlags().String("template", "", "workspace template directory seeded into every case's workspace")

	rootCmd.PersistentFlags().String("llm-provider", "anthropic", "LLM provider backing the LLM judge (anthropic, bedrock)")
	rootCmd.PersistentFlags().String("llm-judge-model", "", "model override for the LLM judge")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or keyring/env)")

	rootCmd.PersistentFlags().String("store", "./__evals__/results/evalloom.db", "SQLite path for run history")

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("parallel", rootCmd.PersistentFlags().Lookup("parallel"))
	_ = viper.BindPFlag("max_concurrency", rootCmd.PersistentFlags().Lookup("max-concurrency"))
	_ = viper.BindPFlag("timeout_ms", rootCmd.PersistentFlags().Lookup("timeout-ms"))
	_ = viper.BindPFlag("max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))
	_ = viper.BindPFlag("trials", rootCmd.PersistentFlags().Lookup("trials"))
	_ = viper.BindPFlag("trial_pass_threshold", rootCmd.PersistentFlags().Lookup("trial-pass-threshold"))
	_ = viper.BindPFlag("test_dir", rootCmd.PersistentFlags().Lookup("test-dir"))
	_ = viper.BindPFlag("test_match", rootCmd.PersistentFlags().Lookup("test-match"))
	_ = viper.BindPFlag("rubrics_dir", rootCmd.PersistentFlags().Lookup("rubrics-dir"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	_ = viper.BindPFlag("preserve_workspaces", rootCmd.PersistentFlags().Lookup("preserve-workspaces"))
	_ = viper.BindPFlag("agent_type", rootCmd.PersistentFlags().Lookup("agent-type"))
	_ = viper.BindPFlag("agent_cmd", rootCmd.PersistentFlags().Lookup("agent-cmd"))
	_ = viper.BindPFlag("agent_args", rootCmd.PersistentFlags().Lookup("agent-args"))
	_ = viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("llm_provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm_judge_model", rootCmd.PersistentFlags().Lookup("llm-judge-model"))
	_ = viper.BindPFlag("anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(config.LogLevel, config.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "error configuring logging: %v\n", err)
		os.Exit(1)
	}
}
