package services

import "errors"

// Domain errors. Handlers map them to HTTP status codes and command replies.
var (
	ErrNotFound            = errors.New("not found")
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrOperationInProgress = errors.New("another backup operation is running for this guild")
)
