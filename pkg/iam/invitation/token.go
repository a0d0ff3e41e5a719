package invitation

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/Abraxas-365/propcore/pkg/errx"
)

const tokenBytes = 32

// NewToken returns a URL-safe token carrying 256 random bits.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errx.Wrap(err, "failed to generate invite token", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
