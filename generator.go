package contraptions

// Resource identifiers declared by the Generator variant.
const (
	EnergyKey    = "energy"
	TerritoryKey = "territory"
)

// GeneratorState is the observable state of a Generator.
type GeneratorState int

const (
	// Nominal means energy is at or above the repower threshold.
	Nominal GeneratorState = iota

	// Repowering means energy is below the threshold and the generator is
	// waiting for convertible material.
	Repowering

	// Destroyed is terminal.
	Destroyed
)

// String returns the string representation of the state.
func (s GeneratorState) String() string {
	switch s {
	case Nominal:
		return "Nominal"
	case Repowering:
		return "Repowering"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Generator grows energy over time, repowers from its inventory when energy
// runs low and is destroyed once energy drops below zero. Territory is
// carried and persisted but does not drive the state machine.
type Generator struct {
	*base
	props *GeneratorProperties

	energy    *Resource
	territory *Resource
}

func newGenerator(p *GeneratorProperties, env *Env, loc Location, inv Inventory) *Generator {
	g := &Generator{
		base:  newBase(env, loc, inv),
		props: p,
	}
	g.self = g
	g.energy = newResource(0, g)
	g.territory = newResource(0, g)
	return g
}

// Properties returns the generator's configuration.
func (g *Generator) Properties() *GeneratorProperties {
	return g.props
}

// Type returns the properties type identifier.
func (g *Generator) Type() string {
	return g.props.typ
}

// State returns the generator's current state.
func (g *Generator) State() GeneratorState {
	switch {
	case g.Destroyed():
		return Destroyed
	case g.energy.Get() < repowerThreshold*g.props.minMax.Max():
		return Repowering
	default:
		return Nominal
	}
}

func (g *Generator) start() {
	g.track(g.props.grow.Run(g.env.Scheduler, g.energy))
	if g.props.decay != nil {
		g.track(g.props.decay.Run(g.env.Scheduler, g.territory))
	}
}

// Resources returns the current energy and territory.
func (g *Generator) Resources() map[string]float64 {
	return map[string]float64{
		EnergyKey:    g.energy.Get(),
		TerritoryKey: g.territory.Get(),
	}
}

// LoadResources restores energy and territory.
func (g *Generator) LoadResources(values map[string]float64) error {
	return loadInto(map[string]*Resource{
		EnergyKey:    g.energy,
		TerritoryKey: g.territory,
	}, values)
}

// HasResource reports whether id is energy or territory.
func (g *Generator) HasResource(id string) bool {
	return id == EnergyKey || id == TerritoryKey
}

// Resource looks up energy or territory.
func (g *Generator) Resource(id string) (*Resource, bool) {
	switch id {
	case EnergyKey:
		return g.energy, true
	case TerritoryKey:
		return g.territory, true
	default:
		return nil, false
	}
}

// Update reacts to a change of r.
func (g *Generator) Update(r *Resource) {
	if g.Destroyed() {
		return
	}
	if r == g.energy {
		g.sustain(g.energy, g.props.minMax, g.props.conversion)
		if g.Destroyed() {
			return
		}
	}
	g.AfterUpdate()
}
