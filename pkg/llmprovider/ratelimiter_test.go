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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{Enabled: false})
	calls := 0
	resp, err := rl.Do(context.Background(), func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{Content: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, calls)
}

func TestRateLimiter_RetriesOnThrottlingError(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{
		Enabled: true, RequestsPerSecond: 1000, BurstCapacity: 10,
		MaxRetries: 3, RetryBackoff: time.Millisecond,
	})

	attempts := 0
	resp, err := rl.Do(context.Background(), func(ctx context.Context) (*Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("429 Too Many Requests")
		}
		return &Response{Content: "eventually ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "eventually ok", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestRateLimiter_NonThrottlingErrorFailsImmediately(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{Enabled: true, RequestsPerSecond: 1000, BurstCapacity: 10, MaxRetries: 5, RetryBackoff: time.Millisecond})

	attempts := 0
	_, err := rl.Do(context.Background(), func(ctx context.Context) (*Response, error) {
		attempts++
		return nil, errors.New("invalid api key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRateLimiter_ExhaustsRetries(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{Enabled: true, RequestsPerSecond: 1000, BurstCapacity: 10, MaxRetries: 2, RetryBackoff: time.Millisecond})

	attempts := 0
	_, err := rl.Do(context.Background(), func(ctx context.Context) (*Response, error) {
		attempts++
		return nil, errors.New("rate limit exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + MaxRetries
}

func TestNewRateLimiter_DefaultsZeroFields(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{})
	assert.Equal(t, 2.0, rl.config.RequestsPerSecond)
	assert.Equal(t, 5, rl.config.BurstCapacity)
}
