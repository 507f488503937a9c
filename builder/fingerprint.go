package builder

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// HashAlgorithm selects the fingerprint hash.
type HashAlgorithm string

const (
	// HashSHA256 fingerprints with SHA-256 (default).
	HashSHA256 HashAlgorithm = "sha256"

	// HashBLAKE3 fingerprints with BLAKE3.
	HashBLAKE3 HashAlgorithm = "blake3"
)

// ParseHashAlgorithm returns the algorithm named s. An empty s means HashSHA256.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch HashAlgorithm(s) {
	case "", HashSHA256:
		return HashSHA256, nil
	case HashBLAKE3:
		return HashBLAKE3, nil
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrConfig, s)
	}
}

// Fingerprint hashes the ordered table set. Names and lengths are framed so
// moving bytes between tables changes the result.
func Fingerprint(algo HashAlgorithm, names []string, data [][]byte) (digest.Digest, error) {
	if len(names) != len(data) {
		return "", fmt.Errorf("builder: fingerprint %d names for %d tables", len(names), len(data))
	}
	var h hash.Hash
	switch algo {
	case "", HashSHA256:
		h = digest.SHA256.Hash()
	case HashBLAKE3:
		h = blake3.New()
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrConfig, algo)
	}

	var n [8]byte
	for i, name := range names {
		binary.LittleEndian.PutUint64(n[:], uint64(len(name)))
		h.Write(n[:])
		h.Write([]byte(name))
		binary.LittleEndian.PutUint64(n[:], uint64(len(data[i])))
		h.Write(n[:])
		h.Write(data[i])
	}

	if algo == HashBLAKE3 {
		return digest.NewDigestFromEncoded(digest.Algorithm(HashBLAKE3), hex.EncodeToString(h.Sum(nil))), nil
	}
	return digest.NewDigest(digest.SHA256, h), nil
}
