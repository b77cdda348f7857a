// Package fingerprint computes stable hashes of catalog snapshots so a
// generated plan can be checked against the state it was produced from.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/srschema/srschema/internal/descriptor"
)

// Fingerprint is a SHA-256 hash of a catalog's canonical JSON form
type Fingerprint struct {
	Hash [32]byte
}

// String returns the hex representation
func (f Fingerprint) String() string {
	return hex.EncodeToString(f.Hash[:])
}

// Compute hashes a catalog. Map keys sort during JSON encoding, so two
// equal catalogs always hash the same.
func Compute(catalog *descriptor.Catalog) (*Fingerprint, error) {
	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize catalog: %w", err)
	}
	return &Fingerprint{Hash: sha256.Sum256(data)}, nil
}
