// errors.go
package auth

import "errors"

var (
	// ErrUnknownState is returned by CompleteAuthorization when the state
	// nonce is unknown, expired, or already consumed.
	ErrUnknownState = errors.New("auth: unknown or already-consumed authorization state")

	// ErrExchangeFailed is returned when the authorization-code exchange
	// against the token endpoint fails.
	ErrExchangeFailed = errors.New("auth: code exchange failed")

	// ErrRefreshFailed is returned when a token refresh fails
	// irrecoverably. The provider drops back to the unauthenticated state.
	ErrRefreshFailed = errors.New("auth: token refresh failed")

	// ErrUnauthenticated is returned when no usable token is held.
	// BeginAuthorization must be invoked again.
	ErrUnauthenticated = errors.New("auth: not authenticated")
)
