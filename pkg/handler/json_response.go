package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/romusha/forumauth/pkg/validator"
)

// JSONResponse is the standard JSON response envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithStatus sets a custom HTTP status code.
func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithMeta adds metadata to the response.
func WithMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// WithErrorCode overrides the machine-readable error code on an error
// response. Callers use it together with WithStatus when mapping domain
// errors to the HTTP surface.
func WithErrorCode(code string) JSONOption {
	return func(r *jsonResponse) {
		if r.body.Error != nil {
			r.body.Error.Code = code
		}
	}
}

// JSON creates a 200 JSON response carrying v as data.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Data: v},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError creates a JSON error response. HTTPError values and
// validator.ValidationErrors map to their natural status codes; anything
// else renders as a 500 with the error message.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error, status *int) *ErrorDetail {
	detail := &ErrorDetail{
		Code:    "internal_error",
		Message: err.Error(),
	}

	if ve := validator.ExtractValidationErrors(err); ve != nil {
		*status = http.StatusBadRequest
		detail.Code = "validation_error"
		detail.Message = "validation failed"
		detail.Details = ve.Details()
		return detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		*status = httpErr.Code
		detail.Code = httpErr.Key
		return detail
	}

	if errors.Is(err, ErrBindingFailed) {
		*status = http.StatusBadRequest
		detail.Code = "bad_request"
		return detail
	}

	return detail
}
