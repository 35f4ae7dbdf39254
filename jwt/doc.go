// Package jwt wraps github.com/golang-jwt/jwt/v5 with the access-token
// shape issued by signet: short-lived, HS256 or ed25519 signed, carrying
// the user ID and anonymity flag as private claims.
package jwt
