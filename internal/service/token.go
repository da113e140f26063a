package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const accessTokenBytes = 32

// newAccessToken returns 64 hex characters from a CSPRNG.
func newAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
