package actor

// Filter controls which fixture pairs the broad phase reports, using
// category/mask bits plus an override group: a non-zero equal group forces
// the pair on (positive) or off (negative) regardless of the bits.
type Filter struct {
	Category uint64
	Mask     uint64
	Group    int
}

// DefaultFilter collides with everything.
func DefaultFilter() Filter {
	return Filter{Category: 1, Mask: ^uint64(0)}
}

// Allows reports whether two filters permit a collision.
func (f Filter) Allows(other Filter) bool {
	if f.Group != 0 && f.Group == other.Group {
		return f.Group > 0
	}
	return f.Category&other.Mask != 0 && other.Category&f.Mask != 0
}
