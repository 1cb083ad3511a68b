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
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJudges_ListsBuiltinsSorted(t *testing.T) {
	config = &Config{LLMProvider: "anthropic"}
	defer func() { config = nil }()

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runJudges(cmd, nil))
	output := out.String()
	assert.Contains(t, output, "agent-routing")
	assert.Contains(t, output, "file-existence")
	assert.Contains(t, output, "syntax-validation")
	assert.Less(t, strings.Index(output, "agent-routing"), strings.Index(output, "file-existence"))
	assert.Less(t, strings.Index(output, "file-existence"), strings.Index(output, "syntax-validation"))
}
