package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"hash/crc32"
	"sort"

	"github.com/cespare/xxhash"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "sha256"

// AlgoFactory creates a fresh hash state.
type AlgoFactory func() hash.Hash

var availableAlgos = map[string]AlgoFactory{
	// Legacy / Common
	"md5":   func() hash.Hash { return md5.New() },
	"sha1":  func() hash.Hash { return sha1.New() },
	"crc32": func() hash.Hash { return crc32.NewIEEE() },

	// SHA-2 Family
	"sha224": func() hash.Hash { return sha256.New224() },
	"sha256": func() hash.Hash { return sha256.New() },
	"sha384": func() hash.Hash { return sha512.New384() },
	"sha512": func() hash.Hash { return sha512.New() },

	// SHA-3 Family
	"sha3-256": func() hash.Hash { return sha3.New256() },
	"sha3-512": func() hash.Hash { return sha3.New512() },

	// BLAKE Family
	"blake2s-256": func() hash.Hash { h, _ := blake2s.New256(nil); return h },
	"blake2b-256": func() hash.Hash { h, _ := blake2b.New256(nil); return h },
	"blake2b-512": func() hash.Hash { h, _ := blake2b.New512(nil); return h },
	"blake3":      func() hash.Hash { return blake3.New() },

	// Modern Non-Cryptographic
	"xxhash": func() hash.Hash { return xxhash.New() },
}

// Algorithms returns the supported algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(availableAlgos))
	for name := range availableAlgos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns a hash for the named algorithm.
func New(name string) (hash.Hash, error) {
	factory, ok := availableAlgos[name]
	if !ok {
		return nil, &UnknownAlgorithmError{Name: name}
	}
	return factory(), nil
}

// Supported reports whether name is a known algorithm.
func Supported(name string) bool {
	_, ok := availableAlgos[name]
	return ok
}
