// Package common contains shared constants and sentinel errors used across
// certvault components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the issuer
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// CertificateIDPrefix starts every certificate identifier:
// CERT-<YYYYMMDD>-<hex>.
const CertificateIDPrefix = "CERT"
