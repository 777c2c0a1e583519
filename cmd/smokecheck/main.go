// Command smokecheck records and classifies smoke extraction shutter
// measurements organised as project, building, zone and shutter.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"smokecheck/pkg/domain"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts := &rootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}
	code := exitCode(err)
	if opts.format == "json" {
		_ = json.NewEncoder(stdout).Encode(response{
			Status: "error",
			Error:  &responseError{Code: code, Message: err.Error()},
		})
		return code
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	return code
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func notFound(kind domain.EntityKind, id string) error {
	return &exitError{code: exitNotFound, err: fmt.Errorf("%s %s not found", kind, id)}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, domain.ErrInvalid) {
		return exitUsage
	}
	return exitFailure
}
