// Package gateways implements the external-process and filesystem adapters
// used by the build pipeline.
package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ochairo/forge/internal/domain/interfaces"
)

const waitDelay = 10 * time.Second

// ProcessRunner runs external tools with the caller's standard streams attached,
// so build output is streamed live rather than captured.
type ProcessRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	logger interfaces.Logger
}

// NewProcessRunner creates a runner wired to the process's own stdio
func NewProcessRunner(logger interfaces.Logger) *ProcessRunner {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ProcessRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger,
	}
}

// RunConfig describes one child process invocation
type RunConfig struct {
	Name        string
	Args        []string
	Dir         string
	Env         map[string]string
	Description string
}

// CommandLine renders the invocation for logs and errors
func (c RunConfig) CommandLine() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ProcessError reports a child process that failed to start or exited non-zero
type ProcessError struct {
	Command  string
	Dir      string
	ExitCode int // -1 when the process never ran to completion
	Err      error
}

func (e *ProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%q exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%q failed: %v", e.Command, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Run starts the process and waits for it to exit. Cancelling ctx kills it.
func (r *ProcessRunner) Run(ctx context.Context, config RunConfig) error {
	//nolint:gosec // G204: Executed tools are fixed by the pipeline configuration
	cmd := exec.CommandContext(ctx, config.Name, config.Args...)
	cmd.Dir = config.Dir
	// Grandchildren holding stdio open must not block a cancelled build.
	cmd.WaitDelay = waitDelay

	if len(config.Env) > 0 {
		env := os.Environ()
		for key, value := range config.Env {
			env = append(env, fmt.Sprintf("%s=%s", key, value))
		}
		cmd.Env = env
	}

	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	commandLine := config.CommandLine()
	r.logger.Debug("executing",
		interfaces.F("step", config.Description),
		interfaces.F("command", commandLine),
		interfaces.F("dir", config.Dir),
	)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		procErr := &ProcessError{
			Command:  commandLine,
			Dir:      config.Dir,
			ExitCode: -1,
			Err:      err,
		}

		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			procErr.Err = fmt.Errorf("%w: %v", ctx.Err(), err)
		case errors.As(err, &exitErr):
			procErr.ExitCode = exitErr.ExitCode()
		}

		r.logger.Debug("process failed",
			interfaces.F("command", commandLine),
			interfaces.F("exit_code", procErr.ExitCode),
			interfaces.F("duration", duration),
		)
		return procErr
	}

	r.logger.Debug("process finished",
		interfaces.F("command", commandLine),
		interfaces.F("duration", duration),
	)
	return nil
}
