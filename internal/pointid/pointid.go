// Package pointid maps catalog product ids to vector index point ids.
//
// Point ids are name-based UUIDs (version 5, SHA-1) of the product id under a fixed
// namespace. A UUIDv5 carries 122 hash bits, so the probability that any two of n
// products collide is about n*n / 2^123; for ten million products that is below 1e-20.
// The mapping is one-way: the index payload carries the product id for the way back.
package pointid

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace is the UUIDv5 namespace for product point ids. Changing it re-keys every
// point, so existing collections would need a full reindex.
var Namespace = uuid.MustParse("6f2b8c1e-5d1a-4c3e-9b7a-2e4f0c9d8a15")

// For returns the point id for productID. The same product id always yields the same
// point id, so repeated upserts overwrite the product's point.
func For(productID string) string {
	return uuid.NewSHA1(Namespace, []byte(strings.TrimSpace(productID))).String()
}

// Valid reports whether id is a well-formed point id.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
