// Package handler provides type-safe HTTP request handling for the auth
// service's JSON API.
//
// Handlers are generic functions that receive a bound, typed request and
// return a Response; Wrap adapts them to http.HandlerFunc, running the
// configured binders and routing binding or rendering failures through the
// error handler. Domain errors map onto the JSON error envelope via
// JSONError, with HTTPError and validation errors carrying their natural
// status codes.
package handler
