package contraptions

import "math"

// ConversionGadget turns inventory material into a resource. One batch of
// inputs yields a fixed amount; producing any amount consumes whole batches.
//
// Format in a properties file:
//
//	"conversion": {"inputs": [{"material": "minecraft:coal", "amount": 1}], "yield": 10}
type ConversionGadget struct {
	inputs []Stack
	yield  float64
}

// NewConversionGadget creates a gadget consuming inputs per yield produced.
func NewConversionGadget(inputs []Stack, yield float64) *ConversionGadget {
	g := &ConversionGadget{yield: yield}
	for _, in := range inputs {
		g.inputs = append(g.inputs, in.WithAmount(in.Amount))
	}
	return g
}

// Yield returns the amount produced by one batch.
func (g *ConversionGadget) Yield() float64 {
	return g.yield
}

// Inputs returns a copy of the per-batch inputs.
func (g *ConversionGadget) Inputs() []Stack {
	return g.Cost(g.yield)
}

// Cost returns the material consumed to produce amount.
func (g *ConversionGadget) Cost(amount float64) []Stack {
	n := g.batches(amount)
	out := make([]Stack, 0, len(g.inputs))
	for _, in := range g.inputs {
		out = append(out, in.WithAmount(in.Amount*n))
	}
	return out
}

func (g *ConversionGadget) batches(amount float64) int {
	if amount <= 0 || g.yield <= 0 {
		return 0
	}
	return int(math.Ceil(amount / g.yield))
}

// CanGenerate reports whether inv holds enough material to produce amount.
func (g *ConversionGadget) CanGenerate(amount float64, inv Inventory) bool {
	if g.batches(amount) == 0 {
		return false
	}
	for _, c := range demand(g.Cost(amount)) {
		if inv.Count(c) < c.Amount {
			return false
		}
	}
	return true
}

// Generate consumes the material for amount and adds amount to r.
// Nothing is consumed and r is unchanged if the material is missing.
func (g *ConversionGadget) Generate(amount float64, inv Inventory, r *Resource) bool {
	if !g.CanGenerate(amount, inv) {
		return false
	}
	if err := inv.Remove(g.Cost(amount)...); err != nil {
		return false
	}
	r.Change(amount)
	return true
}
