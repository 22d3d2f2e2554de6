package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier used to tag requests in logs and
// response headers: 16 bytes of entropy as lower-case hex.
func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
