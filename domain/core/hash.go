package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeGraphHash fingerprints a graph by its node names (order-independent)
// and its edge identities (order-dependent, since edge order is part of the result).
func ComputeGraphHash(nodeNames []string, edgeKeys []string) Hash {
	names := append([]string(nil), nodeNames...)
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		data.WriteString(fmt.Sprintf("n:%s\n", name))
	}
	for _, key := range edgeKeys {
		data.WriteString(fmt.Sprintf("e:%s\n", key))
	}

	return NewHash([]byte(data.String()))
}
