package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// randomToken returns n random bytes encoded as unpadded base64url
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
