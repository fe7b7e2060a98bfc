// Package intern implements the string interning table: a mapping from
// string content to a single canonical *value.ObjString, so that
// string equality can be reduced to object identity at the VM level.
//
// Grounded in original_source/table.rs (the clox hash table used for
// both string interning and the globals table); here it is narrowed to
// its interning role, keyed by the content itself rather than a
// hand-rolled open-addressing scheme, since Go's map already gives
// O(1) average lookup without reimplementing probing.
package intern

import "github.com/informatter/nilox/value"

// Table deduplicates string objects by content. The zero value is not
// ready to use; call New.
type Table struct {
	strings map[string]*value.ObjString
}

// New creates an empty intern table.
func New() *Table {
	return &Table{strings: make(map[string]*value.ObjString)}
}

// Intern returns the canonical *value.ObjString for s: an existing
// entry if s was interned before (a hash+content hit), otherwise a
// freshly allocated and stored one (a miss).
func (t *Table) Intern(s string) *value.ObjString {
	if existing, ok := t.strings[s]; ok {
		return existing
	}
	obj := value.NewObjString(s)
	t.strings[s] = obj
	return obj
}
