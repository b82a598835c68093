package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const maxStderrLen = 500

// Runner executes external commands.
type Runner interface {
	// Output runs a command to completion and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream runs a command and calls onLine for every line written to stdout.
	Stream(ctx context.Context, onLine func(string), name string, args ...string) error
}

// ExecRunner runs commands with [exec.CommandContext].
type ExecRunner struct{}

// cappedWriter keeps the first max bytes written and discards the rest.
type cappedWriter struct {
	buf bytes.Buffer
	max int
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if room := w.max - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

func (w *cappedWriter) wrap(name string, err error) error {
	if msg := strings.TrimSpace(w.buf.String()); msg != "" {
		return fmt.Errorf("%s: %s: %w", name, msg, err)
	}
	return fmt.Errorf("exec %s: %w", name, err)
}

// Output runs the command; on failure stderr (capped at 500 bytes) becomes the error message.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	stderr := &cappedWriter{max: maxStderrLen}
	c := exec.CommandContext(ctx, name, args...)
	c.Stderr = stderr
	out, err := c.Output()
	if err != nil {
		return out, stderr.wrap(name, err)
	}
	return out, nil
}

// Stream runs the command, scanning stdout line by line until it exits.
func (ExecRunner) Stream(ctx context.Context, onLine func(string), name string, args ...string) error {
	stderr := &cappedWriter{max: maxStderrLen}
	c := exec.CommandContext(ctx, name, args...)
	c.Stderr = stderr

	stdout, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to capture stdout: %w", err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("exec %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	// drain so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, stdout)

	if err := c.Wait(); err != nil {
		return stderr.wrap(name, err)
	}
	return nil
}
