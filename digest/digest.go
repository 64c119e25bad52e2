package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Supported algorithm identifiers.
const (
	AlgorithmSHA256     = "sha-256"
	AlgorithmSHA512     = "sha-512"
	AlgorithmSHA3256    = "sha3-256"
	AlgorithmSHA3512    = "sha3-512"
	AlgorithmBLAKE2b256 = "blake2b-256"
	AlgorithmBLAKE2b512 = "blake2b-512"
)

// ErrUnsupportedAlgorithm is returned by [New] for unknown algorithm names.
var ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

// Hasher computes base64 encoded digests with a fixed hash algorithm.
// It is safe for concurrent use; each call gets a fresh hash state.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// New returns a Hasher for algorithm. An empty algorithm selects SHA-256.
func New(algorithm string) (*Hasher, error) {
	if algorithm == "" {
		algorithm = AlgorithmSHA256
	}

	var fn func() hash.Hash
	switch algorithm {
	case AlgorithmSHA256:
		fn = sha256.New
	case AlgorithmSHA512:
		fn = sha512.New
	case AlgorithmSHA3256:
		fn = func() hash.Hash { return sha3.New256() }
	case AlgorithmSHA3512:
		fn = func() hash.Hash { return sha3.New512() }
	case AlgorithmBLAKE2b256:
		fn = mustBlake(blake2b.New256)
	case AlgorithmBLAKE2b512:
		fn = mustBlake(blake2b.New512)
	default:
		return nil, fmt.Errorf("algorithm[%s] %w", algorithm, ErrUnsupportedAlgorithm)
	}

	return &Hasher{algorithm: algorithm, newHash: fn}, nil
}

// SHA256 returns the Hasher expected by the Checkout API.
func SHA256() *Hasher {
	return &Hasher{algorithm: AlgorithmSHA256, newHash: sha256.New}
}

// Algorithm reports the algorithm identifier.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Digest returns base64(hash(data)).
func (h *Hasher) Digest(data []byte) string {
	hh := h.newHash()
	hh.Write(data) // hash.Hash writes never fail.

	return base64.StdEncoding.EncodeToString(hh.Sum(nil))
}

// mustBlake adapts the keyed blake2b constructors. A nil key never errors.
func mustBlake(fn func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := fn(nil)
		if err != nil {
			panic(fmt.Sprintf("digest: blake2b without key: %v", err))
		}
		return h
	}
}

// Supported lists every accepted algorithm identifier.
func Supported() []string {
	return []string{
		AlgorithmSHA256,
		AlgorithmSHA512,
		AlgorithmSHA3256,
		AlgorithmSHA3512,
		AlgorithmBLAKE2b256,
		AlgorithmBLAKE2b512,
	}
}
