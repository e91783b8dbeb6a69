package value

// Kind is the closed set of Value variants. Adding a variant means extending
// every switch over Kind; callers must not fall through silently.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDate
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsComposite reports whether values of this kind hold children.
func (k Kind) IsComposite() bool {
	return k == KindArray || k == KindObject
}

// Classify reports the variant of v. It exists so call sites that dispatch on
// shape read the same way whether they hold a Value or converted Go data.
func Classify(v Value) Kind {
	return v.kind
}

// Zero returns the empty value for a kind: "", 0, false, the zero time, an
// empty array or an empty object.
func Zero(kind Kind) Value {
	switch kind {
	case KindBool:
		return Bool(false)
	case KindNumber:
		return Number(0)
	case KindString:
		return String("")
	case KindDate:
		return Value{kind: KindDate}
	case KindArray:
		return Array()
	case KindObject:
		return Object()
	default:
		return Null()
	}
}
