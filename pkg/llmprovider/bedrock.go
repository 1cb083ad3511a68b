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
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const (
	defaultBedrockModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	defaultBedrockRegion  = "us-east-1"
)

// BedrockConfig configures the Bedrock-backed provider.
type BedrockConfig struct {
	ModelID         string
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	MaxTokens       int
	RateLimiter     RateLimiterConfig
}

// BedrockProvider talks to Claude models through AWS Bedrock using the
// official Anthropic SDK's Bedrock transport, rather than hand-rolling
// SigV4 signing against the raw Bedrock runtime API.
type BedrockProvider struct {
	client    anthropicsdk.Client
	modelID   string
	maxTokens int64
	limiter   *RateLimiter
}

// NewBedrockProvider builds a provider from config, resolving AWS
// credentials through explicit keys, a named profile, or the default
// chain, in that order of preference.
func NewBedrockProvider(cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.ModelID == "" {
		if env := os.Getenv("AWS_BEDROCK_MODEL_ID"); env != "" {
			cfg.ModelID = env
		} else {
			cfg.ModelID = defaultBedrockModelID
		}
	}
	if cfg.Region == "" {
		if env := os.Getenv("AWS_DEFAULT_REGION"); env != "" {
			cfg.Region = env
		} else {
			cfg.Region = defaultBedrockRegion
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	var awsCfg aws.Config
	var err error
	ctx := context.Background()
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
			)),
		)
	case cfg.Profile != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	default:
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := anthropicsdk.NewClient(bedrock.WithConfig(awsCfg))

	return &BedrockProvider{
		client:    client,
		modelID:   cfg.ModelID,
		maxTokens: int64(cfg.MaxTokens),
		limiter:   NewRateLimiter(cfg.RateLimiter),
	}, nil
}

func (p *BedrockProvider) Name() string  { return "bedrock" }
func (p *BedrockProvider) Model() string { return p.modelID }

// Complete sends a judge prompt to Claude via Bedrock.
func (p *BedrockProvider) Complete(ctx context.Context, messages []Message) (*Response, error) {
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
		Model:     anthropicsdk.Model(p.modelID),
		Messages:  sdkMessages,
		MaxTokens: p.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := p.limiter.Do(ctx, func(ctx context.Context) (*Response, error) {
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("bedrock invocation: %w", err)
		}
		var text string
		for _, block := range msg.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return &Response{
			Content:    text,
			StopReason: string(msg.StopReason),
			Usage: Usage{
				InputTokens:  int(msg.Usage.InputTokens),
				OutputTokens: int(msg.Usage.OutputTokens),
				TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
