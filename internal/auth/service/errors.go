package service

import "errors"

var (
	// ErrTokenAlreadyInvalidated means the token's jti is in the revocation
	// store. The client has to log in again.
	ErrTokenAlreadyInvalidated = errors.New("token already invalidated")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserStatusNotValid = errors.New("user status is not valid")
	ErrPasswordNotValid   = errors.New("password is not valid")
	ErrUserAlreadyExists  = errors.New("user already exists")

	ErrInvalidInput = errors.New("invalid input")
	ErrAccessDenied = errors.New("access denied")
)
