// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes returned by every command.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates missing or rejected credentials.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
