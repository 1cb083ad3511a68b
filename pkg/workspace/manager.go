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

// Package workspace allocates and tears down isolated filesystem
// directories, one per eval case execution.
package workspace

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/weftlabs/evalloom/internal/log"
	"go.uber.org/zap"
)

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var excludedFromTemplateCopy = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// Workspace is one allocated directory handed to a case execution.
type Workspace struct {
	ID   string
	Path string
}

// Manager owns the lifecycle of workspaces for a run.
type Manager struct {
	baseDir string

	mu   sync.Mutex
	live map[string]Workspace
}

// NewManager resolves the base directory for new workspaces: the
// preferred location is {cwd}/__evals__/results/workspaces, falling back
// to the OS temp directory when that is not writable.
func NewManager() (*Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	base := filepath.Join(cwd, "__evals__", "results", "workspaces")
	if err := os.MkdirAll(base, 0o755); err != nil {
		base = filepath.Join(os.TempDir(), "evalloom-workspaces")
		if mkErr := os.MkdirAll(base, 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating fallback workspace base %s: %w", base, mkErr)
		}
		log.Warn("preferred workspace base not writable, falling back to temp dir",
			zap.String("preferred", filepath.Join(cwd, "__evals__", "results", "workspaces")),
			zap.String("fallback", base), zap.Error(err))
	}

	return NewManagerAt(base)
}

// NewManagerAt builds a Manager rooted at an explicit base directory,
// creating it if necessary. Callers that need a non-cwd-relative base
// (tests, for example) use this directly.
func NewManagerAt(base string) (*Manager, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace base %s: %w", base, err)
	}
	return &Manager{baseDir: base, live: make(map[string]Workspace)}, nil
}

// CreateWorkspace allocates a fresh workspace, optionally seeded from a
// template directory. A non-existent template falls back silently to the
// minimal skeleton.
func (m *Manager) CreateWorkspace(template string) (Workspace, error) {
	id, err := newWorkspaceID()
	if err != nil {
		return Workspace{}, err
	}
	path := filepath.Join(m.baseDir, id)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("creating workspace dir %s: %w", path, err)
	}

	if template != "" {
		if info, statErr := os.Stat(template); statErr == nil && info.IsDir() {
			if err := copyTemplate(template, path); err != nil {
				return Workspace{}, fmt.Errorf("copying template %s into %s: %w", template, path, err)
			}
			ws := Workspace{ID: id, Path: path}
			m.track(ws)
			return ws, nil
		}
		log.Warn("workspace template not found, using minimal skeleton", zap.String("template", template))
	}

	if err := writeSkeleton(path, id); err != nil {
		return Workspace{}, err
	}

	ws := Workspace{ID: id, Path: path}
	m.track(ws)
	return ws, nil
}

func (m *Manager) track(ws Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[ws.ID] = ws
}

// Live returns the currently outstanding workspaces.
func (m *Manager) Live() []Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Workspace, 0, len(m.live))
	for _, ws := range m.live {
		out = append(out, ws)
	}
	return out
}

// CleanupWorkspace removes a workspace directory, retrying a handful of
// times before giving up. It is idempotent: a second call on an
// already-removed (or never-created) id is a no-op.
func (m *Manager) CleanupWorkspace(id string) {
	m.mu.Lock()
	ws, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if !ok {
		return
	}

	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := os.RemoveAll(ws.Path); err == nil {
			return
		} else {
			lastErr = err
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Warn("failed to clean up workspace after retries",
		zap.String("workspace_id", id), zap.String("path", ws.Path), zap.Error(lastErr))
}

// CleanupAll tears down every outstanding workspace. It is the runner's
// defensive sweep for survivors of a crashed or cancelled run.
func (m *Manager) CleanupAll() {
	for _, ws := range m.Live() {
		m.CleanupWorkspace(ws.ID)
	}
}

func newWorkspaceID() (string, error) {
	suffix, err := randomAlnum(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ws-%d-%s", time.Now().UnixMilli(), suffix), nil
}

func randomAlnum(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random workspace suffix: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alnum[int(b)%len(alnum)]
	}
	return string(out), nil
}

func writeSkeleton(path, id string) error {
	if err := os.MkdirAll(filepath.Join(path, "src"), 0o755); err != nil {
		return fmt.Errorf("creating src dir: %w", err)
	}
	manifest := fmt.Sprintf("workspace: %s\ncreated: %s\n", id, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(path, "workspace.yaml"), []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("writing workspace manifest: %w", err)
	}
	return nil
}

func copyTemplate(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if excludedFromTemplateCopy[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
