package blake3

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// Compute returns the hex encoded BLAKE3 digest of everything read from data.
func Compute(data io.Reader) (string, error) {
	hash := blake3.New()
	if _, err := io.Copy(hash, data); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Sum returns the hex encoded BLAKE3 digest of data.
func Sum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Tag formats a digest the way part tags and etags are quoted by S3.
func Tag(data []byte) string {
	return `"` + Sum(data) + `"`
}
