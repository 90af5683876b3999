// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned smartctl output keyed by the joined arguments.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]Output
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]Output{}, errs: map[string]error{}}
}

func (f *fakeRunner) set(out Output, args ...string) {
	f.outputs[strings.Join(args, " ")] = out
}

func (f *fakeRunner) fail(err error, args ...string) {
	f.errs[strings.Join(args, " ")] = err
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (Output, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return Output{}, err
	}
	return f.outputs[key], nil
}

// device registers the three standard probes for a device.
func (f *fakeRunner) device(dev, iface string, info []string, silent int, attrs []string) {
	f.set(Output{Lines: info}, "-d", iface, "-Hi", dev)
	f.set(Output{ExitCode: silent}, "-d", iface, "-q", "silent", "-A", dev)
	f.set(Output{Lines: attrs}, "-d", iface, "-a", dev)
}

type fakeFileInfo struct {
	name string
	mode fs.FileMode
}

func (fi fakeFileInfo) Name() string       { return fi.name }
func (fi fakeFileInfo) Size() int64        { return 0 }
func (fi fakeFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fakeFileInfo) Sys() any           { return nil }

// fakeResolver treats every name in devices as a block device.
func fakeResolver(devices ...string) *Resolver {
	known := map[string]bool{}
	for _, d := range devices {
		known[d] = true
	}
	return &Resolver{
		Stat: func(name string) (fs.FileInfo, error) {
			if known[name] {
				return fakeFileInfo{name: name, mode: fs.ModeDevice}, nil
			}
			return nil, fs.ErrNotExist
		},
		Glob: func(pattern string) ([]string, error) {
			var out []string
			for _, d := range devices {
				if ok, _ := filepath.Match(pattern, d); ok {
					out = append(out, d)
				}
			}
			return out, nil
		},
	}
}

func readLines(t *testing.T, name string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func mustPolicy(t *testing.T, cfg PolicyConfig) *Policy {
	t.Helper()
	p, err := NewPolicy(cfg)
	require.NoError(t, err)
	return p
}

func newTestChecker(runner Runner, policy *Policy, devices ...string) *Checker {
	return &Checker{Runner: runner, Resolver: fakeResolver(devices...), Policy: policy, Concurrency: 1}
}

var errProbeTimeout = errors.New("smartctl: context deadline exceeded")

func perfStrings(findings []AttributeFinding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.String()
	}
	return out
}
