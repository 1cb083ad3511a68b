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
	"errors"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig configures the token-bucket limiter guarding a
// provider's API calls.
type RateLimiterConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstCapacity     int
	MaxRetries        int
	RetryBackoff      time.Duration
}

// DefaultRateLimiterConfig returns conservative defaults suitable for the
// judge's single-flight rubric calls.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Enabled:           true,
		RequestsPerSecond: 2.0,
		BurstCapacity:     5,
		MaxRetries:        5,
		RetryBackoff:      1 * time.Second,
	}
}

// RateLimiter is a token-bucket limiter with retry-on-throttle. Unlike the
// queueing limiter a full agent orchestrator needs, the judge only ever
// issues one call at a time per worker, so acquireToken blocking on the
// caller's goroutine is sufficient.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

// NewRateLimiter constructs a limiter from config, defaulting zero fields.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2.0
	}
	if config.BurstCapacity <= 0 {
		config.BurstCapacity = 5
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.BurstCapacity),
		maxTokens:  float64(config.BurstCapacity),
		refillRate: config.RequestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Do runs call, blocking for a token first and retrying with exponential
// backoff on throttling errors.
func (rl *RateLimiter) Do(ctx context.Context, call func(context.Context) (*Response, error)) (*Response, error) {
	if !rl.config.Enabled {
		return call(ctx)
	}

	var lastErr error
	backoff := rl.config.RetryBackoff
	for attempt := 0; attempt <= rl.config.MaxRetries; attempt++ {
		if err := rl.acquireToken(ctx); err != nil {
			return nil, err
		}

		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isThrottlingError(err) {
			return nil, err
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (rl *RateLimiter) acquireToken(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(rl.lastRefill).Seconds()
		rl.tokens = min(rl.maxTokens, rl.tokens+elapsed*rl.refillRate)
		rl.lastRefill = now

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		wait := time.Duration(float64(time.Second) / rl.refillRate)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	var msg string
	var unwrapped error = err
	for unwrapped != nil {
		msg += unwrapped.Error()
		unwrapped = errors.Unwrap(unwrapped)
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "throttl") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
