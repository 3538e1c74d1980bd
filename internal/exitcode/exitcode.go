// Package exitcode defines the spacectl exit codes and maps errors
// onto them so scripts can branch on outcomes.
package exitcode

import (
	"errors"
	"os"
	"strings"

	"github.com/electisspace/spacectl/internal/api"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication failure or a dead session
	AuthError = 3

	// NetworkError indicates a network connectivity issue
	NetworkError = 4

	// ServerError indicates the API server reported a failure
	ServerError = 5

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case api.CodeInvalidCredentials, api.CodeUserNotFound, api.CodeUserInactive,
			api.CodeInvalidCode, api.CodeCodeExpired:
			return AuthError
		case api.CodeNetworkError, api.CodeConnectionRefused:
			return NetworkError
		default:
			return ServerError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "not logged in") || strings.Contains(errMsg, "session expired") ||
		strings.Contains(errMsg, "session is no longer valid") {
		return AuthError
	}

	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "invalid argument") || strings.Contains(errMsg, "required flag") {
		return UsageError
	}

	return GeneralError
}

// Description returns a human-readable description of an exit code
func Description(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ServerError:
		return "Server error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
