// Package hasher computes the fixed 32-byte document digests used as keys
// by the notary contract.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/blake3"
)

// Size is the digest length in bytes. It matches the contract's bytes32 key.
const Size = 32

// Algorithm names a supported digest function.
type Algorithm string

const (
	SHA256    Algorithm = "sha256"
	Keccak256 Algorithm = "keccak256"
	BLAKE3    Algorithm = "blake3"

	// Default is the algorithm used when none is configured.
	Default = SHA256
)

// ErrUnknownAlgorithm is returned by New and ParseAlgorithm for unsupported names.
var ErrUnknownAlgorithm = errors.New("hasher: unknown algorithm")

// Digest is a document digest.
type Digest [Size]byte

// Hex returns the lowercase hex form without a 0x prefix.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns a copy of the digest as a slice.
func (d Digest) Bytes() []byte {
	return append([]byte(nil), d[:]...)
}

// String implements fmt.Stringer.
func (d Digest) String() string {
	return d.Hex()
}

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest decodes a 64 character hex string, with or without 0x prefix.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("decode digest: %w", err)
	}
	if len(raw) != Size {
		return d, fmt.Errorf("digest must be %d bytes, got %d", Size, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// ParseAlgorithm normalizes a configured algorithm name. An empty name yields Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(name))); alg {
	case "":
		return Default, nil
	case SHA256, Keccak256, BLAKE3:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Hasher turns document content into a Digest.
type Hasher struct {
	alg Algorithm
}

// New returns a Hasher for alg.
func New(alg Algorithm) (*Hasher, error) {
	parsed, err := ParseAlgorithm(string(alg))
	if err != nil {
		return nil, err
	}
	return &Hasher{alg: parsed}, nil
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

func (h *Hasher) newHash() hash.Hash {
	switch h.alg {
	case Keccak256:
		return crypto.NewKeccakState()
	case BLAKE3:
		return blake3.New(Size, nil)
	default:
		return sha256.New()
	}
}

// Sum returns the digest of content.
func (h *Hasher) Sum(content []byte) Digest {
	var d Digest
	switch h.alg {
	case Keccak256:
		copy(d[:], crypto.Keccak256(content))
	case BLAKE3:
		d = blake3.Sum256(content)
	default:
		d = sha256.Sum256(content)
	}
	return d
}

// SumString hashes the UTF-8 bytes of s. Go strings carry their bytes as-is,
// so the same text always produces the same digest.
func (h *Hasher) SumString(s string) Digest {
	return h.Sum([]byte(s))
}

// SumReader hashes r using a read buffer sized from sizeHint (<= 0 when unknown).
func (h *Hasher) SumReader(r io.Reader, sizeHint int64) (Digest, error) {
	var d Digest
	buf := make([]byte, chunkSizeFor(sizeHint))

	state := h.newHash()
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := state.Write(buf[:n]); werr != nil {
				return d, werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return d, rerr
		}
	}
	copy(d[:], state.Sum(nil))
	return d, nil
}

// SumFile hashes the file at path.
func (h *Hasher) SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Digest{}, err
	}
	return h.SumReader(f, fi.Size())
}

// chunkSizeFor returns the read buffer size based on total input size.
//
//	≤ 4 MiB      → 512 KiB
//	4–32 MiB     → 1 MiB
//	32 MiB–2 GiB → 2 MiB
//	>  2 GiB     → 4 MiB
func chunkSizeFor(total int64) int64 {
	if total <= 0 {
		return 512 << 10
	}
	switch {
	case total <= 4<<20:
		return 512 << 10
	case total <= 32<<20:
		return 1 << 20
	case total <= 2<<30:
		return 2 << 20
	default:
		return 4 << 20
	}
}

// Sum returns the SHA-256 digest of content.
func Sum(content []byte) Digest {
	return sha256.Sum256(content)
}

// SumString returns the SHA-256 digest of the UTF-8 bytes of s.
func SumString(s string) Digest {
	return Sum([]byte(s))
}
