// Package executor runs external helper programs, such as ffprobe, and
// captures their output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

const maxStderrTail = 2000

// CommandError describes a helper that ran but exited unsuccessfully.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Cause    error
}

func (commandError *CommandError) Error() string {
	if commandError == nil {
		return "command failed"
	}
	message := fmt.Sprintf("%s exited with status %d", commandError.Command, commandError.ExitCode)
	if commandError.Stderr != "" {
		message += ": " + commandError.Stderr
	}
	return message
}

func (commandError *CommandError) Unwrap() error {
	if commandError == nil {
		return nil
	}
	return commandError.Cause
}

// Output runs name with args and returns its standard output. A non-zero
// exit becomes a *CommandError carrying the tail of standard error.
func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	execCommand := exec.CommandContext(ctx, name, args...)
	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}
	execCommand.Stdout = &stdout
	execCommand.Stderr = &stderr

	runError := execCommand.Run()
	if runError == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		statusCode := extractExitCode(exitError)
		if statusCode < 0 {
			statusCode = 1
		}
		return nil, &CommandError{
			Command:  name,
			ExitCode: statusCode,
			Stderr:   tail(strings.TrimSpace(stderr.String()), maxStderrTail),
			Cause:    runError,
		}
	}
	return nil, fmt.Errorf("run %s: %w", name, runError)
}

// LookPath reports the resolved location of a helper program.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// IsTerminal reports whether file is attached to a character device.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	info, statError := file.Stat()
	if statError != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func extractExitCode(exitError *exec.ExitError) int {
	if exitError == nil {
		return -1
	}

	if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
		return status.ExitStatus()
	}

	message := exitError.Error()
	segments := strings.Split(message, "exit status ")
	if len(segments) > 1 {
		if parsed, parseError := strconv.Atoi(strings.TrimSpace(segments[len(segments)-1])); parseError == nil {
			return parsed
		}
	}
	return -1
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
