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
	"os"
	"path/filepath"
	"strings"

	"github.com/weftlabs/evalloom/internal/log"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/llmprovider"
	"go.uber.org/zap"
)

// Wire applies run-time configuration to a freshly constructed registry:
// it re-registers agent-routing with the configured work-type keywords,
// and registers one LLMJudge per rubric file found under
// config.RubricsDir, keyed by the file's base name without extension
// (the id a case's Judges list references).
func Wire(registry *Registry, config evalcase.Config, provider llmprovider.Provider) {
	registry.Register("agent-routing", NewAgentRoutingJudge(config.RoutingKeywords))

	if provider == nil || config.RubricsDir == "" {
		return
	}

	entries, err := os.ReadDir(config.RubricsDir)
	if err != nil {
		log.Warn("rubrics directory not readable, skipping LLM judge registration", zap.String("dir", config.RubricsDir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".md")
		registry.Register(id, NewLLMJudge(provider, config.RubricsDir, id))
	}
}
