package handler

import "errors"

var (
	// ErrNilResponse indicates a handler returned nil instead of a Response.
	ErrNilResponse = errors.New("handler returned nil response")
	// ErrBindingFailed indicates the request body could not be bound to the
	// handler's request type.
	ErrBindingFailed = errors.New("request binding failed")
)
