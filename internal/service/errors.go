// Package service implements the use cases of the ticket gate: scanner
// authentication, ticket validation, ticket issuance and payments.
// Services depend on small store interfaces declared here so unit tests can
// run against in-memory fakes.
package service

import "errors"

// ErrUnauthorized covers every credential failure: unknown API key, wrong
// secret, inactive or suspended device, invalid or expired token. Handlers
// translate it into HTTP 401 without revealing which check failed.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an authenticated caller lacks the required
// capability or does not own the resource it is addressing.
var ErrForbidden = errors.New("forbidden")

// ErrMalformedAPIKey is returned when a submitted key does not carry the
// scanner key prefix. Malformed keys are rejected before any lookup.
var ErrMalformedAPIKey = errors.New("malformed api key")
