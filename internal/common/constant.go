// Package common contains shared constants and sentinel errors used across
// gophbooks components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// protected requests.
const AuthorizationHeaderName = "Authorization"

// AuthenticateHeaderName is the challenge header sent with 401 responses.
const AuthenticateHeaderName = "WWW-Authenticate"

// BearerScheme is the only supported authorization scheme and the token type
// returned by login.
const BearerScheme = "Bearer"

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"
