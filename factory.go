package contraptions

import (
	"errors"
	"fmt"
)

var (
	// ErrRecipeMismatch is returned by Craft when the inventory is not
	// exactly the recipe.
	ErrRecipeMismatch = errors.New("contraptions: inventory does not match recipe")

	// ErrInsufficientEnergy is returned by Craft when energy is below the
	// craft cost.
	ErrInsufficientEnergy = errors.New("contraptions: insufficient energy")
)

// Factory burns energy over time to stay running and spends energy to
// consume its recipe. It repowers and is destroyed under the same rules as
// a Generator.
type Factory struct {
	*base
	props *FactoryProperties

	energy *Resource
	crafts int
}

func newFactory(p *FactoryProperties, env *Env, loc Location, inv Inventory) *Factory {
	f := &Factory{
		base:  newBase(env, loc, inv),
		props: p,
	}
	f.self = f
	f.energy = newResource(p.minMax.Max(), f)
	return f
}

// Properties returns the factory's configuration.
func (f *Factory) Properties() *FactoryProperties {
	return f.props
}

// Type returns the properties type identifier.
func (f *Factory) Type() string {
	return f.props.typ
}

func (f *Factory) start() {
	f.track(f.props.decay.Run(f.env.Scheduler, f.energy))
}

// Resources returns the current energy.
func (f *Factory) Resources() map[string]float64 {
	return map[string]float64{EnergyKey: f.energy.Get()}
}

// LoadResources restores energy.
func (f *Factory) LoadResources(values map[string]float64) error {
	return loadInto(map[string]*Resource{EnergyKey: f.energy}, values)
}

// HasResource reports whether id is energy.
func (f *Factory) HasResource(id string) bool {
	return id == EnergyKey
}

// Resource looks up energy.
func (f *Factory) Resource(id string) (*Resource, bool) {
	if id == EnergyKey {
		return f.energy, true
	}
	return nil, false
}

// Crafts returns how many recipes the factory has consumed.
func (f *Factory) Crafts() int {
	return f.crafts
}

// Craft consumes the recipe from the inventory and spends the craft cost.
// It must be called inside Exec, typically through Manager.Interact.
func (f *Factory) Craft() error {
	if f.Destroyed() {
		return ErrDestroyed
	}
	if f.energy.Get() < f.props.craftCost {
		return fmt.Errorf("%w: have %.2f, need %.2f", ErrInsufficientEnergy, f.energy.Get(), f.props.craftCost)
	}
	if !f.props.recipe.Consume(f.inv) {
		return ErrRecipeMismatch
	}
	f.crafts++
	f.energy.Change(-f.props.craftCost)
	return nil
}

// Update reacts to a change of r.
func (f *Factory) Update(r *Resource) {
	if f.Destroyed() {
		return
	}
	if r == f.energy {
		f.sustain(f.energy, f.props.minMax, f.props.conversion)
		if f.Destroyed() {
			return
		}
	}
	f.AfterUpdate()
}
