package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/stride/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// ExitCode returns 0 for nil errors and for errors matching any of the
// informational targets, and 1 otherwise.
func ExitCode(err error, informational ...error) int {
	if err == nil {
		return 0
	}
	for _, target := range informational {
		if stderrors.Is(err, target) {
			return 0
		}
	}
	return 1
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
