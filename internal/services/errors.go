package services

import (
	"errors"
)

// Kind classifies a service error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

type serviceError struct {
	kind Kind
	msg  string
}

func (e *serviceError) Error() string {
	return e.msg
}

func newError(kind Kind, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	ErrMissingFields      = newError(KindBadRequest, "missing required fields")
	ErrMissingCredentials = newError(KindBadRequest, "email and password required")
	ErrContentRequired    = newError(KindBadRequest, "content is required")
	ErrSelfFollow         = newError(KindBadRequest, "cannot follow yourself")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid credentials")
	ErrForbidden          = newError(KindForbidden, "not the owner")
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrPostNotFound       = newError(KindNotFound, "post not found")
	ErrCommentNotFound    = newError(KindNotFound, "comment not found")
	ErrUserExists         = newError(KindConflict, "user already exists")
)

// KindOf returns the Kind of the first service error in err's chain, or
// KindInternal for anything else.
func KindOf(err error) Kind {
	var se *serviceError
	if errors.As(err, &se) {
		return se.kind
	}
	return KindInternal
}
