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

import "fmt"

// ClassifiedError wraps a failure with the ErrorKind the runner assigned
// it, so callers that only have an error value (rather than the full
// EvalCaseResult) can still branch on the taxonomy via errors.As.
type ClassifiedError struct {
	Kind  ErrorKind
	CaseID string
	Cause error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.CaseID, e.Kind, e.Cause)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// NewClassifiedError constructs a ClassifiedError for caseID.
func NewClassifiedError(kind ErrorKind, caseID string, cause error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, CaseID: caseID, Cause: cause}
}
