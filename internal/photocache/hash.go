package photocache

import (
	"crypto/sha256"
	"encoding/hex"
)

const hashDomain = "callerid/photo/v1"

// Hash returns the cache key for blob: SHA-256 over a domain tag, a null
// separator and the blob string itself. The key addresses the input text,
// not the decoded bytes, so no decoding is needed to find a cached file.
func Hash(blob string) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(blob))
	return hex.EncodeToString(h.Sum(nil))
}
