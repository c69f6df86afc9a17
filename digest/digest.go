// Package digest computes the content/function fingerprints the memoization
// core uses for equality checks. It only needs to detect change, not resist
// a deliberate forger, so a 128-bit truncation of a fast modern hash is
// plenty.
package digest

import (
	"encoding/hex"
	"io"

	"lukechampine.com/blake3"
)

// Size is the digest width in bytes (128 bits).
const Size = 16

// Digest is a content fingerprint. Two digests compare equal with ==.
type Digest [Size]byte

// String renders the digest as hex, for logging.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest (never stored for a real file
// or function; used as a sentinel for "no digest yet").
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Sum digests the content of r.
func Sum(r io.Reader) (Digest, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	return truncate(h.Sum(nil)), nil
}

// SumBytes digests b directly.
func SumBytes(b []byte) Digest {
	full := blake3.Sum256(b)
	return truncate(full[:])
}

// SumString digests the UTF-8 bytes of s. Used for version-string function
// digests (see funcreg).
func SumString(s string) Digest {
	return SumBytes([]byte(s))
}

func truncate(full []byte) Digest {
	var d Digest
	copy(d[:], full[:Size])
	return d
}
