package contraptions

// MinMaxGadget keeps a resource within [min, max].
type MinMaxGadget struct {
	min float64
	max float64
}

// NewMinMaxGadget creates a clamp to [min, max].
func NewMinMaxGadget(min, max float64) *MinMaxGadget {
	return &MinMaxGadget{min: min, max: max}
}

// Min returns the lower bound.
func (g *MinMaxGadget) Min() float64 {
	return g.min
}

// Max returns the upper bound.
func (g *MinMaxGadget) Max() float64 {
	return g.max
}

// Update applies a corrective change if r is out of bounds.
// The correction notifies r's owner like any other change.
func (g *MinMaxGadget) Update(r *Resource) {
	switch v := r.Get(); {
	case v > g.max:
		r.Change(g.max - v)
	case v < g.min:
		r.Change(g.min - v)
	}
}
