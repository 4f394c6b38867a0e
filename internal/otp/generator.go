// Package otp produces one-time verification codes and opaque link tokens.
package otp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
)

// DefaultLength is the number of digits in a verification code.
const DefaultLength = 6

const opaqueBytes = 32

var ten = big.NewInt(10)

// Generator draws from a cryptographic random source.
type Generator struct {
	rand io.Reader
}

// New returns a generator backed by crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// OTP returns exactly length ASCII digits, each uniformly distributed.
func (g *Generator) OTP(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(g.rand, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// Opaque returns 32 random bytes encoded as unpadded URL-safe base64.
func (g *Generator) Opaque() (string, error) {
	buf := make([]byte, opaqueBytes)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
