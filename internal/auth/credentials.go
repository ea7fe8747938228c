// Package auth provides member credential records and session tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Supported credential algorithms. New credentials always use bcrypt;
// sha256 and simple exist only to verify records migrated from older
// snapshots.
const (
	AlgoBcrypt = "bcrypt"
	AlgoSHA256 = "sha256"
	AlgoSimple = "simple"
)

// Credential is a versioned password record. Scheme migration is a switch
// on Algorithm rather than prefix inspection of an opaque string.
type Credential struct {
	Algorithm string `json:"algorithm"`
	Hash      string `json:"hash"`
}

// IsZero reports whether no credential has been set.
func (c Credential) IsZero() bool {
	return c.Algorithm == "" && c.Hash == ""
}

// HashPassword hashes the trimmed password with the current algorithm.
func HashPassword(password string) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Algorithm: AlgoBcrypt, Hash: string(hash)}, nil
}

// Verify reports whether the password matches the record. Unknown
// algorithms never verify.
func (c Credential) Verify(password string) bool {
	password = strings.TrimSpace(password)
	switch c.Algorithm {
	case AlgoBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) == nil
	case AlgoSHA256:
		sum := sha256.Sum256([]byte(password))
		want := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(c.Hash))) == 1
	case AlgoSimple:
		return subtle.ConstantTimeCompare([]byte(simpleHash(password)), []byte(c.Hash)) == 1
	default:
		return false
	}
}

// ParseLegacy converts the older string forms into a Credential:
// "algo:hex" tagged values and bare sha256 hex digests. It reports
// ok=false for empty input.
func ParseLegacy(stored string) (Credential, bool) {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return Credential{}, false
	}
	if algo, hash, found := strings.Cut(stored, ":"); found {
		return Credential{Algorithm: algo, Hash: hash}, true
	}
	// Oldest records stored raw sha256 hex with no tag.
	return Credential{Algorithm: AlgoSHA256, Hash: stored}, true
}

// simpleHash mirrors the 32-bit rolling hash older clients fell back to
// when no crypto primitive was available.
func simpleHash(password string) string {
	var h uint32
	for _, r := range password {
		h = h*31 + uint32(r)
	}
	return strconv.FormatUint(uint64(h), 16)
}
