package binder

import "errors"

var (
	// ErrMissingContentType indicates the request carried no Content-Type header.
	ErrMissingContentType = errors.New("missing content type")
	// ErrUnsupportedMediaType indicates a Content-Type this binder cannot decode.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidJSON indicates a malformed or incomplete JSON body.
	ErrInvalidJSON = errors.New("invalid JSON")
)
