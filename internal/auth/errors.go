package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
	ErrUnauthorized  = errors.New("auth: unauthorized")

	// ErrInvalidToken covers every token failure: malformed input, bad
	// signature, expiry in the past. Callers must not learn which.
	ErrInvalidToken = errors.New("invalid token")
)
