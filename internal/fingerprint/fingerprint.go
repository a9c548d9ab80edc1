// Package fingerprint computes content digests used for notification dedup.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// New returns the hex-encoded sha256 digest of the JSON encoding of text.
// Hashing the JSON encoding (rather than the raw bytes, with HTML escaping
// off) keeps fingerprints compatible with the history rows written by the
// previous generation of this service.
func New(text string) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(text); err != nil {
		// Encoding a string cannot fail; fall back to raw bytes anyway.
		buf.Reset()
		buf.WriteString(text)
	}

	sum := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))

	return hex.EncodeToString(sum[:])
}
