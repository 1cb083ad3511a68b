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

// Package llmprovider gives the LLM judge a small, provider-agnostic
// surface over the handful of chat completion backends an eval run might
// be configured against. It is deliberately thinner than a general agent
// LLM client: the judge only ever sends a single-turn rubric prompt and
// reads back text, so there is no tool-calling or streaming here.
package llmprovider

import "context"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// Usage reports token accounting for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
}

// Response is what a provider returns for one completion.
type Response struct {
	Content    string
	StopReason string
	Usage      Usage
}

// Provider abstracts a chat completion backend. Implementations are
// expected to be safe for concurrent use: the runner fans judge calls out
// across a worker pool.
type Provider interface {
	// Complete sends messages and returns the model's reply.
	Complete(ctx context.Context, messages []Message) (*Response, error)
	// Name identifies the provider, e.g. "anthropic" or "bedrock".
	Name() string
	// Model returns the configured model identifier.
	Model() string
}
