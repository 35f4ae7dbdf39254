// Package internal holds token and identifier helpers shared by the
// signet root package. Nothing here is part of the public API.
package internal
