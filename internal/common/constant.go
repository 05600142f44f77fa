// Package common contains shared constants and sentinel errors used across
// VoiceLedger components.
package common

// AuthorizationHeader carries the bearer token on API requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "
