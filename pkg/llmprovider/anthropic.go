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

package llmprovider

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	defaultMaxTokens      = 4096
)

// AnthropicConfig configures the direct-API Anthropic provider.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // overrides the SDK's default endpoint, mainly for tests
	MaxTokens   int
	RateLimiter RateLimiterConfig
}

// AnthropicProvider talks to Claude models through the Anthropic API using
// the official SDK in its direct (non-Bedrock) mode, the same client type
// BedrockProvider drives through the Bedrock transport.
type AnthropicProvider struct {
	client    anthropicsdk.Client
	model     string
	maxTokens int64
	limiter   *RateLimiter
}

// NewAnthropicProvider constructs a provider from config, defaulting zero
// fields from the environment or hardcoded fallbacks.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	if cfg.Model == "" {
		if env := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); env != "" {
			cfg.Model = env
		} else {
			cfg.Model = defaultAnthropicModel
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:    anthropicsdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		limiter:   NewRateLimiter(cfg.RateLimiter),
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

// Complete sends a single-turn (or short multi-turn) judge prompt to
// Claude and returns its text reply.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message) (*Response, error) {
	var system []anthropicsdk.TextBlockParam
	var sdkMessages []anthropicsdk.MessageParam
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropicsdk.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			sdkMessages = append(sdkMessages, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			sdkMessages = append(sdkMessages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}
	if len(sdkMessages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.model),
		Messages:  sdkMessages,
		MaxTokens: p.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := p.limiter.Do(ctx, func(ctx context.Context) (*Response, error) {
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic chat completion: %w", err)
		}
		var text string
		for _, block := range msg.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		inputTokens := int(msg.Usage.InputTokens)
		outputTokens := int(msg.Usage.OutputTokens)
		return &Response{
			Content:    text,
			StopReason: string(msg.StopReason),
			Usage: Usage{
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
				TotalTokens:  inputTokens + outputTokens,
				CostUSD:      estimateAnthropicCost(inputTokens, outputTokens),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// estimateAnthropicCost prices against Claude 3.5 Sonnet's published rate;
// it is a rough budget signal for reporting, not a billing source of truth.
func estimateAnthropicCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*3.0/1_000_000 + float64(outputTokens)*15.0/1_000_000
}
