package scanner

// Kind is the type of a labeled entity.
type Kind int

const (
	Figure Kind = iota
	Table
	Section
)

// Kinds lists every kind in completion order.
var Kinds = []Kind{Figure, Table, Section}

// String returns the citation keyword of the kind.
func (k Kind) String() string {
	switch k {
	case Figure:
		return "fig"
	case Table:
		return "tbl"
	case Section:
		return "sec"
	default:
		return "unknown"
	}
}

// ParseKind maps a citation keyword to its Kind.
func ParseKind(keyword string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == keyword {
			return k, true
		}
	}
	return 0, false
}

// MarshalText renders the keyword.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
