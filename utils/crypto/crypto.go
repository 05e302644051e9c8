package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// StateTokenLength is the byte length of OAuth state tokens before encoding.
const StateTokenLength = 32

// RandomStateToken generates a cryptographically secure, URL-safe token used
// as the OAuth state parameter.
func RandomStateToken() (string, error) {
	buf := make([]byte, StateTokenLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
