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

// Package cliagent adapts an external command-line agent (a CLI that
// reads a prompt and acts on a working directory) into an evalcase.Agent,
// so the evalloom binary can drive a suite against a real agent without
// the caller writing Go glue. Library callers with an in-process agent
// should implement evalcase.Agent directly instead of going through this
// package.
package cliagent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// Config configures the subprocess invocation.
type Config struct {
	// Command and Args form the program to run; the prompt is written to
	// its stdin. "{workdir}", "{evalId}", "{sessionId}" in Args are
	// substituted before exec.
	Command string
	Args    []string
}

// New returns an evalcase.Agent that shells out to Config.Command for
// each invocation, treating a zero exit code as success. Stdout becomes
// AgentResult.Output; stderr is appended to AgentResult.Error on failure.
func New(cfg Config) evalcase.Agent {
	return func(ctx context.Context, prompt string, agentCtx evalcase.AgentContext) (evalcase.AgentResult, error) {
		args := substituteArgs(cfg.Args, agentCtx)

		cmd := exec.CommandContext(ctx, cfg.Command, args...)
		cmd.Dir = agentCtx.WorkingDirectory
		cmd.Stdin = strings.NewReader(prompt)
		cmd.Env = append(os.Environ(),
			"EVALLOOM_EVAL_ID="+agentCtx.EvalID,
			"EVALLOOM_EVAL_NAME="+agentCtx.EvalName,
			"EVALLOOM_SESSION_ID="+agentCtx.SessionID,
			"EVALLOOM_WORKDIR="+agentCtx.WorkingDirectory,
		)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		start := time.Now()
		err := cmd.Run()
		duration := time.Since(start)

		if err != nil {
			return evalcase.AgentResult{
				Output:   stdout.String(),
				Success:  false,
				Error:    fmt.Sprintf("%v: %s", err, strings.TrimSpace(stderr.String())),
				Duration: duration,
			}, nil
		}

		return evalcase.AgentResult{
			Output:   stdout.String(),
			Success:  true,
			Duration: duration,
		}, nil
	}
}

func substituteArgs(args []string, agentCtx evalcase.AgentContext) []string {
	out := make([]string, len(args))
	replacer := strings.NewReplacer(
		"{workdir}", agentCtx.WorkingDirectory,
		"{evalId}", agentCtx.EvalID,
		"{sessionId}", agentCtx.SessionID,
	)
	for i, a := range args {
		out[i] = replacer.Replace(a)
	}
	return out
}
