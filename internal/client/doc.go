// Package client talks to a remote certvault server over gRPC.
//
// GRPCClient manages the connection, injects the issuer access token into
// outgoing metadata and maps gRPC status codes to sentinel errors that
// callers match with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrInvalidRequest.
package client
