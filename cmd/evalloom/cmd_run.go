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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/weftlabs/evalloom/internal/log"
	"github.com/weftlabs/evalloom/pkg/cliagent"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/harness"
	"github.com/weftlabs/evalloom/pkg/judge"
	"github.com/weftlabs/evalloom/pkg/llmprovider"
	"github.com/weftlabs/evalloom/pkg/runner"
	"github.com/weftlabs/evalloom/pkg/store"
	"github.com/weftlabs/evalloom/pkg/workspace"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [suite-dir]",
	Short: "Run an eval suite end to end",
	Long: `Loads every eval case under the given directory (or --test-dir),
drives the configured agent through the runner and judges, prints a
console summary, and persists the run for later "evalloom report" use.

Examples:
  evalloom run ./__evals__ --agent-cmd ./my-agent
  evalloom run --watch --agent-cmd ./my-agent`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("watch", false, "re-run the suite whenever a file under test-dir changes")
	_ = viper.BindPFlag("watch", runCmd.Flags().Lookup("watch"))
}

func runRun(cmd *cobra.Command, args []string) error {
	testDir := config.TestDir
	if len(args) == 1 {
		testDir = args[0]
	}

	agent, err := buildAgent(config)
	if err != nil {
		return err
	}

	runOnce := func() (evalcase.EvalSuiteResult, error) {
		return executeRun(cmd.Context(), testDir, agent)
	}

	suite, err := runOnce()
	if err != nil {
		return err
	}
	printSuiteSummary(suite)

	if !config.Watch {
		if suite.Failed+suite.Errors > 0 {
			os.Exit(1)
		}
		return nil
	}

	return watchAndRerun(cmd.Context(), testDir, runOnce)
}

func executeRun(ctx context.Context, testDir string, agent evalcase.Agent) (evalcase.EvalSuiteResult, error) {
	cases, err := evalcase.Load(testDir, config.TestMatch, evalcase.Filter{EnabledOnly: true})
	if err != nil {
		return evalcase.EvalSuiteResult{}, fmt.Errorf("loading eval cases: %w", err)
	}
	if len(cases) == 0 {
		return evalcase.EvalSuiteResult{}, fmt.Errorf("no eval cases found under %s matching %v", testDir, config.TestMatch)
	}
	log.Info("loaded eval cases", zap.Int("count", len(cases)), zap.String("test_dir", testDir))

	workspaces, err := workspace.NewManager()
	if err != nil {
		return evalcase.EvalSuiteResult{}, fmt.Errorf("creating workspace manager: %w", err)
	}

	h := harness.New(agent, workspaces, time.Duration(config.TimeoutMs)*time.Millisecond, config.AgentType, config.Template)

	registry := judge.NewRegistry()
	provider, providerErr := buildLLMProvider(config)
	if providerErr != nil {
		log.Warn("LLM provider unavailable, LLM judges will not be registered", zap.Error(providerErr))
		provider = nil
	}
	judge.Wire(registry, resolveRunnerConfig(), provider)

	r := runner.New(resolveRunnerConfig(), h, registry, runner.Hooks{})

	suite, err := r.Run(ctx, cases)
	if err != nil {
		return evalcase.EvalSuiteResult{}, fmt.Errorf("running suite: %w", err)
	}

	if err := persistRun(ctx, testDir, suite); err != nil {
		log.Warn("failed to persist run", zap.Error(err))
	}

	return suite, nil
}

func buildAgent(cfg *Config) (evalcase.Agent, error) {
	if cfg.AgentCmd == "" {
		return nil, fmt.Errorf("no agent configured: set --agent-cmd or embed evalloom as a library with a custom evalcase.Agent")
	}
	return cliagent.New(cliagent.Config{Command: cfg.AgentCmd, Args: cfg.AgentArgs}), nil
}

func buildLLMProvider(cfg *Config) (llmprovider.Provider, error) {
	anthropicModel, bedrockModelID := cfg.AnthropicModel, cfg.BedrockModelID
	if cfg.LLMJudgeModel != "" {
		anthropicModel, bedrockModelID = cfg.LLMJudgeModel, cfg.LLMJudgeModel
	}
	switch cfg.LLMProvider {
	case "bedrock":
		return llmprovider.NewBedrockProvider(llmprovider.BedrockConfig{
			ModelID: bedrockModelID,
			Region:  cfg.BedrockRegion,
			Profile: cfg.BedrockProfile,
		})
	default:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("no anthropic API key configured")
		}
		return llmprovider.NewAnthropicProvider(llmprovider.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  anthropicModel,
		}), nil
	}
}

func resolveRunnerConfig() evalcase.Config {
	routingKeywords := config.RoutingKeywords
	if routingKeywords == nil {
		routingKeywords = map[string][]string{}
	}
	return evalcase.Config{
		Parallel:               config.Parallel,
		MaxConcurrency:         config.MaxConcurrency,
		Timeout:                time.Duration(config.TimeoutMs) * time.Millisecond,
		MaxRetries:             config.MaxRetries,
		RetryDelay:             time.Duration(config.RetryDelayMs) * time.Millisecond,
		RetryBackoffMultiplier: config.RetryBackoffMultiplier,
		Trials:                 config.Trials,
		TrialPassThreshold:     config.TrialPassThreshold,
		TestMatch:              config.TestMatch,
		TestDir:                config.TestDir,
		RubricsDir:             config.RubricsDir,
		OutputDir:              config.OutputDir,
		PreserveWorkspaces:     config.PreserveWorkspaces,
		LLMJudgeModel:          config.LLMJudgeModel,
		RoutingKeywords:        routingKeywords,
	}
}

func persistRun(ctx context.Context, testDir string, suite evalcase.EvalSuiteResult) error {
	if err := os.MkdirAll(filepath.Dir(config.StorePath), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	s, err := store.Open(config.StorePath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, filepath.Base(testDir), suite)
}

func printSuiteSummary(suite evalcase.EvalSuiteResult) {
	fmt.Printf("\nRun %s: %d total, %d passed, %d failed, %d errors (%.1f%% pass rate) in %s\n",
		suite.RunID, suite.Total, suite.Passed, suite.Failed, suite.Errors, suite.PassRate*100, suite.Duration.Round(time.Millisecond))
	for _, r := range suite.Results {
		status := "PASS"
		if !r.Success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s (%s)\n", status, r.EvalCase.Name, r.Duration.Round(time.Millisecond))
		if !r.Success && r.Error != "" {
			fmt.Printf("         %s\n", r.Error)
		}
	}
}

func watchAndRerun(ctx context.Context, testDir string, runOnce func() (evalcase.EvalSuiteResult, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	if err := filepath.Walk(testDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("watching %s: %w", testDir, err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", testDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			log.Info("eval case file changed, re-running suite", zap.String("path", event.Name))
			suite, err := runOnce()
			if err != nil {
				log.Warn("re-run failed", zap.Error(err))
				continue
			}
			printSuiteSummary(suite)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", zap.Error(err))
		}
	}
}
