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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/weftlabs/evalloom/pkg/evalcase"
)

const syntaxValidationPassThreshold = 90.0

var syntaxCheckedExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// SyntaxValidationJudge checks that each of a code-gen case's targetFiles
// with a JS/TS extension parses cleanly. Only `.js`/`.jsx` get a real
// ECMAScript parse (via goja, the only JS engine available to this
// codebase); `.ts`/`.tsx` get a structural balance check since no
// TypeScript-aware parser is available, and TypeScript's type-level
// syntax (generics, interfaces, `as` casts) defeats goja's ECMAScript
// grammar.
type SyntaxValidationJudge struct{}

func NewSyntaxValidationJudge() *SyntaxValidationJudge { return &SyntaxValidationJudge{} }

func (j *SyntaxValidationJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	if !jctx.EvalCase.SyntaxValidation {
		return notApplicable(), nil
	}

	var files []string
	for _, rel := range jctx.EvalCase.TargetFiles {
		if syntaxCheckedExtensions[strings.ToLower(filepath.Ext(rel))] {
			files = append(files, rel)
		}
	}
	if len(files) == 0 {
		return notApplicable(), nil
	}

	satisfied := 0
	var errs []string
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(jctx.Workspace, rel))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rel, err))
			continue
		}
		if err := validateSyntax(rel, string(content)); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rel, err))
			continue
		}
		satisfied++
	}

	score := 100 * float64(satisfied) / float64(len(files))
	passed := score >= syntaxValidationPassThreshold
	reasoning := fmt.Sprintf("%d/%d files parsed cleanly", satisfied, len(files))
	if len(errs) > 0 {
		reasoning += fmt.Sprintf("; errors: %v", errs)
	}

	return evalcase.JudgeResult{Passed: passed, Score: score, Confidence: 1, Reasoning: reasoning}, nil
}

func validateSyntax(filename, content string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".js" || ext == ".jsx" {
		_, err := goja.Compile(filename, content, false)
		return err
	}
	return checkBalancedDelimiters(content)
}

func checkBalancedDelimiters(content string) error {
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch c {
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}
