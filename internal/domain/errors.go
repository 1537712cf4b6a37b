package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrAuthMissing indicates no usable credential is stored locally
	ErrAuthMissing = errors.New("not signed in")

	// ErrAuthFailed indicates the server rejected the credential
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrServerOffline indicates the backend is unreachable
	ErrServerOffline = errors.New("server is unreachable")

	// ErrNotFound indicates the requested user or video does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidResponse indicates a response body could not be decoded into a record
	ErrInvalidResponse = errors.New("invalid server response")

	// ErrInvalidKey indicates a resource key that would alias another cache entry
	ErrInvalidKey = errors.New("invalid resource key")

	// ErrLoaderClosed indicates a load was attempted after the loader was torn down
	ErrLoaderClosed = errors.New("loader closed")
)

// IsAuthError reports whether err should send the user to sign-in rather than a retry prompt.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthMissing) || errors.Is(err, ErrAuthFailed)
}
