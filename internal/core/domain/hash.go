package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"go.trai.ch/zerr"
)

// HashSize is the length of a ContentHash in bytes.
const HashSize = sha256.Size

// ContentHash identifies a generated state. It is a SHA-256 digest.
type ContentHash [HashSize]byte

// HashBytes returns the digest of b.
func HashBytes(b []byte) ContentHash {
	return sha256.Sum256(b)
}

// HashString returns the digest of s.
func HashString(s string) ContentHash {
	return sha256.Sum256([]byte(s))
}

// HashReader streams r into a digest.
func HashReader(r io.Reader) (ContentHash, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return ContentHash{}, zerr.Wrap(err, ErrFileHashFailed.Error())
	}
	var out ContentHash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// ParseHash decodes a hex digest. The boolean is false when s is not valid hex
// or does not decode to exactly HashSize bytes.
func ParseHash(s string) (ContentHash, bool) {
	var out ContentHash
	if hex.DecodedLen(len(s)) != HashSize {
		return out, false
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return ContentHash{}, false
	}
	return out, true
}

// Hex renders the digest as lowercase hex.
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h ContentHash) String() string {
	return h.Hex()
}

// Equal reports whether both digests are identical.
func (h ContentHash) Equal(other ContentHash) bool {
	return h == other
}

// Compose hashes the concatenation of h and other. The result depends on
// argument order.
func (h ContentHash) Compose(other ContentHash) ContentHash {
	var buf [2 * HashSize]byte
	copy(buf[:HashSize], h[:])
	copy(buf[HashSize:], other[:])
	return sha256.Sum256(buf[:])
}

// Fold composes hashes left to right: Fold(a, b, c) == a.Compose(b).Compose(c).
// Folding nothing yields the digest of empty input.
func Fold(hashes ...ContentHash) ContentHash {
	if len(hashes) == 0 {
		return HashBytes(nil)
	}
	acc := hashes[0]
	for _, h := range hashes[1:] {
		acc = acc.Compose(h)
	}
	return acc
}

// MarshalText implements encoding.TextMarshaler.
func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *ContentHash) UnmarshalText(text []byte) error {
	parsed, ok := ParseHash(string(text))
	if !ok {
		return zerr.With(ErrInvalidHash, "hash", string(text))
	}
	*h = parsed
	return nil
}
