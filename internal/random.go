package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
)

const (
	refreshIDSize     = 16
	refreshSecretSize = 32
	refreshRawSize    = refreshIDSize + refreshSecretSize
)

// RefreshID identifies a stored refresh-token record. The secret half of
// the token never touches storage; only its hash does.
type RefreshID [refreshIDSize]byte

func NewRefreshID() (RefreshID, error) {
	var id RefreshID
	_, err := rand.Read(id[:])
	return id, err
}

func (r RefreshID) String() string {
	return base64.RawURLEncoding.EncodeToString(r[:])
}

func ParseRefreshID(s string) (RefreshID, error) {
	var id RefreshID
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, errors.New("invalid refresh id size")
	}
	copy(id[:], raw)
	return id, nil
}

func NewRefreshSecret() ([refreshSecretSize]byte, error) {
	var secret [refreshSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

func HashSecret(secret []byte) [32]byte {
	return sha256.Sum256(secret)
}

// EncodeRefreshToken packs id and secret into one opaque base64url token.
func EncodeRefreshToken(id RefreshID, secret [refreshSecretSize]byte) string {
	var raw [refreshRawSize]byte
	copy(raw[:refreshIDSize], id[:])
	copy(raw[refreshIDSize:], secret[:])
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

func DecodeRefreshToken(token string) (RefreshID, [refreshSecretSize]byte, error) {
	var id RefreshID
	var secret [refreshSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return id, secret, err
	}
	if len(raw) != refreshRawSize {
		return id, secret, errors.New("invalid refresh token size")
	}
	copy(id[:], raw[:refreshIDSize])
	copy(secret[:], raw[refreshIDSize:])
	return id, secret, nil
}

// NewOTP returns a numeric one-time code of the given length, each digit
// drawn independently from crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
