package keys

// All returns a new key range matching all keys
func All() Range {
	return Range{}
}

// Range represents all keys such that
//
//	k >= Min and k < Max
//
// If Min = nil that indicates the start of all keys
// If Max = nil that indicates the end of all keys
// Chained modifiers AND their restrictions together.
type Range struct {
	Min []byte
	Max []byte
	ns  []byte
}

// Eq confines the range to just key k
func (r Range) Eq(k []byte) Range {
	return r.Gte(k).Lte(k)
}

// Gt confines the range to keys that are
// greater than k
func (r Range) Gt(k []byte) Range {
	return r.refineMin(After(k))
}

// Gte confines the range to keys that are
// greater than or equal to k
func (r Range) Gte(k []byte) Range {
	return r.refineMin(k)
}

// Lt confines the range to keys that are
// less than k
func (r Range) Lt(k []byte) Range {
	return r.refineMax(k)
}

// Lte confines the range to keys that are
// less than or equal to k
func (r Range) Lte(k []byte) Range {
	return r.refineMax(After(k))
}

// Prefix confines the range to keys that
// start with k, excluding k itself
func (r Range) Prefix(k []byte) Range {
	r = r.Gt(k)

	if upper := Inc(k); upper != nil {
		r = r.Lt(upper)
	}

	return r
}

// Namespace moves the range inside the namespace ns by
// prefixing its bounds with ns. Subsequent modifiers are
// interpreted relative to the namespace. Applying Namespace
// more than once nests the earlier namespaces inside the
// later ones.
func (r Range) Namespace(ns []byte) Range {
	r.Min = Join(ns, r.Min)

	if r.Max == nil {
		r.Max = Inc(ns)
	} else {
		r.Max = Join(ns, r.Max)
	}

	r.ns = Join(ns, r.ns)

	return r
}

// Contains returns true if k falls within the range
func (r Range) Contains(k []byte) bool {
	if r.Min != nil && Compare(k, r.Min) < 0 {
		return false
	}

	if r.Max != nil && Compare(k, r.Max) >= 0 {
		return false
	}

	return true
}

func (r Range) refineMin(min []byte) Range {
	min = Join(r.ns, min)

	if r.Min != nil && Compare(min, r.Min) <= 0 {
		return r
	}

	r.Min = min

	return r
}

func (r Range) refineMax(max []byte) Range {
	max = Join(r.ns, max)

	if r.Max != nil && Compare(max, r.Max) >= 0 {
		return r
	}

	r.Max = max

	return r
}
