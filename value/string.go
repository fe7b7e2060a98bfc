package value

import "hash/fnv"

// ObjString is the sole Obj variant this core supports: an immutable
// byte sequence with a precomputed 64-bit FNV-1a hash. Two ObjStrings
// are equal iff both their hash and their content match. hash/fnv is
// stdlib; no repository in the retrieval pack reaches for a
// third-party hashing library for this narrow a concern (see
// DESIGN.md), and FNV-1a is what original_source/value.rs uses too
// (there, via the `fnv` crate's 64-bit hasher).
type ObjString struct {
	Chars string
	Hash  uint64
}

// NewObjString builds an ObjString and computes its hash. Call sites
// that need interning should go through intern.Table instead of
// calling this directly, so equal-content strings share one object.
func NewObjString(s string) *ObjString {
	return &ObjString{Chars: s, Hash: HashString(s)}
}

// HashString computes the 64-bit FNV-1a hash of s, the value stored in
// ObjString.Hash.
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Equal compares two string objects by hash then content.
func (o *ObjString) Equal(other *ObjString) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	return o.Hash == other.Hash && o.Chars == other.Chars
}
