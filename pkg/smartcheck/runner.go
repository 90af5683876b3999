// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSearchPath is where the smartctl executable is looked up.
var DefaultSearchPath = []string{"/usr/bin", "/bin", "/usr/sbin", "/sbin", "/usr/local/bin", "/usr/local/sbin"}

const DefaultProbeTimeout = 30 * time.Second

// Output is what one smartctl invocation produced.
type Output struct {
	ExitCode int
	Lines    []string
}

// Runner invokes the diagnostic tool. A nonzero exit status is data and must
// not be returned as an error; errors are reserved for start failures and
// timeouts.
type Runner interface {
	Run(ctx context.Context, args ...string) (Output, error)
}

// ResolveExecutable returns the first executable file called name in dirs.
func ResolveExecutable(name string, dirs []string) (string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}
		if fi.Mode().Perm()&0o111 != 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrExecutableNotFound, strings.Join(dirs, ", "))
}

// ExecRunner runs smartctl as a subprocess.
type ExecRunner struct {
	Path    string
	Sudo    bool
	Timeout time.Duration
}

// NewExecRunner locates smartctl in DefaultSearchPath unless path is given.
func NewExecRunner(path string, sudo bool, timeout time.Duration) (*ExecRunner, error) {
	if path == "" {
		var err error
		path, err = ResolveExecutable("smartctl", DefaultSearchPath)
		if err != nil {
			return nil, err
		}
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &ExecRunner{Path: path, Sudo: sudo, Timeout: timeout}, nil
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	name := r.Path
	if r.Sudo {
		args = append([]string{r.Path}, args...)
		name = "sudo"
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	log.Debug().Str("command", name).Strs("args", args).Msg("probe_executing")
	start := time.Now()
	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Output{}, fmt.Errorf("smartctl %s: %w", strings.Join(args, " "), ctxErr)
	}

	out := Output{Lines: splitLines(stdout.Bytes())}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Output{}, fmt.Errorf("error running smartctl: %w", err)
		}
		out.ExitCode = exitErr.ExitCode()
	}

	log.Debug().
		Int("exit_code", out.ExitCode).
		Int("lines", len(out.Lines)).
		Dur("took", time.Since(start)).
		Msg("probe_executed")
	return out, nil
}

func splitLines(b []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
