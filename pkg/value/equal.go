package value

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equalOptions = cmp.Options{
	cmp.AllowUnexported(Value{}, object{}),
	// key order is presentation only
	cmpopts.IgnoreFields(object{}, "keys"),
	cmpopts.EquateEmpty(),
}

// Equal reports deep structural equality. Object key order is ignored; dates
// compare by instant.
func Equal(a, b Value) bool {
	return cmp.Equal(a, b, equalOptions)
}

// CmpOptions exposes the comparison options so tests can produce readable
// diffs with cmp.Diff.
func CmpOptions() cmp.Options {
	return equalOptions
}
