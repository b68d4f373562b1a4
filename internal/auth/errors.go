package auth

import "errors"

var (
	// ErrInvalidToken indicates a malformed, forged or wrongly-signed token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrWrongTokenKind indicates an access token offered where a refresh
	// token is required, or the reverse.
	ErrWrongTokenKind = errors.New("auth: wrong token kind")
	// ErrInvalidCredentials covers unknown email and bad password alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthenticated indicates the bearer could not be resolved to a user.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrInactive indicates a valid identity whose account is deactivated.
	ErrInactive = errors.New("auth: account inactive")
)
