package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the encoding
// to change without old and new fingerprints colliding.
const (
	DomainResult = "pullgraph/result/v1"
	DomainQuery  = "pullgraph/query/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator keeps the domain/data boundary unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical encoding of v under domain.
func Fingerprint(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return HashWithDomain(domain, data), nil
}
