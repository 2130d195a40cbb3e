package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pankaj-dahiya-devops/awsinv/internal/engine"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
)

// Process exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitInvalidRegion = 2
	exitInterrupted   = 130
)

// errUnhealthy is returned by doctor when a check failed. Its result has
// already been printed, so main exits without an extra message.
var errUnhealthy = errors.New("environment unhealthy")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if msg := errorMessage(err); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(exitCode(err))
}

// errorMessage returns the stderr text for a command error, or "" when
// nothing should be printed.
func errorMessage(err error) string {
	var regionErr *engine.RegionError
	switch {
	case err == nil, errors.Is(err, errUnhealthy):
		return ""
	case errors.As(err, &regionErr):
		return fmt.Sprintf("error: %v\nknown regions: %s", err, strings.Join(common.KnownRegions(), ", "))
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return "error: " + err.Error()
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var regionErr *engine.RegionError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &regionErr):
		return exitInvalidRegion
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
