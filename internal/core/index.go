package core

// KeySet is the set of normalized identifiers already present in a target
// table. It is built once per run and only read afterwards.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet returns a set holding the given keys. Empty keys are ignored.
func NewKeySet(keys ...string) KeySet {
	s := KeySet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.add(k)
	}
	return s
}

func (s KeySet) add(k string) {
	if k != "" {
		s.keys[k] = struct{}{}
	}
}

// Has reports whether k is a known key. The empty key is never known.
func (s KeySet) Has(k string) bool {
	if k == "" {
		return false
	}
	_, ok := s.keys[k]
	return ok
}

// Len returns the number of distinct keys.
func (s KeySet) Len() int {
	return len(s.keys)
}

// IndexTarget scans the identifier column of the target from
// layout.TargetStartRow to the end and collects the normalized keys.
// A single leading layout.TargetIDPrefix is removed before normalizing.
func IndexTarget(target Table, layout Layout) KeySet {
	set := NewKeySet()
	for r := max(layout.TargetStartRow, 0); r < len(target); r++ {
		c := target.Cell(r, layout.TargetIDColumn)
		if c.IsEmpty() {
			continue
		}
		raw := stripTargetPrefix(c.String(), layout.TargetIDPrefix)
		set.add(normalizeString(raw))
	}
	return set
}
