// Package value defines the recursive form value: a tagged union over null,
// boolean, number, string, date, array and object. Values are immutable;
// every write returns a new Value by copy-on-write along the written path so
// siblings keep their identity.
//
// Values round-trip through JSON and YAML with object key order preserved and
// can be converted to and from plain Go data (FromAny, ToAny, Decode).
package value
