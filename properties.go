package contraptions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProperties wraps every properties validation failure.
var ErrInvalidProperties = errors.New("contraptions: invalid properties")

// Kind names a contraption variant.
type Kind string

const (
	KindGenerator Kind = "generator"
	KindFactory   Kind = "factory"
)

// Properties is the immutable per-type configuration shared by every
// contraption of that type. Each variant has its own Properties type, which
// also constructs the variant.
type Properties interface {
	// Type returns the unique type identifier.
	Type() string

	// Kind returns the variant the properties build.
	Kind() Kind

	// Name returns the display name.
	Name() string

	// Blueprint returns the item set required by Manager.Build, or nil.
	Blueprint() *MatchGadget

	// instantiate creates a contraption without starting its tasks.
	instantiate(env *Env, loc Location, inv Inventory) Contraption
}

// GeneratorProperties configures Generator contraptions.
type GeneratorProperties struct {
	typ        string
	name       string
	grow       *GrowGadget
	decay      *DecayGadget
	minMax     *MinMaxGadget
	conversion *ConversionGadget
	blueprint  *MatchGadget
}

func (p *GeneratorProperties) Type() string { return p.typ }
func (p *GeneratorProperties) Kind() Kind { return KindGenerator }
func (p *GeneratorProperties) Name() string { return p.name }
func (p *GeneratorProperties) Blueprint() *MatchGadget { return p.blueprint }
func (p *GeneratorProperties) GrowGadget() *GrowGadget { return p.grow }
func (p *GeneratorProperties) MinMaxGadget() *MinMaxGadget { return p.minMax }
func (p *GeneratorProperties) ConversionGadget() *ConversionGadget {
	return p.conversion
}

// DecayGadget returns the territory decay, or nil.
func (p *GeneratorProperties) DecayGadget() *DecayGadget { return p.decay }

func (p *GeneratorProperties) instantiate(env *Env, loc Location, inv Inventory) Contraption {
	return newGenerator(p, env, loc, inv)
}

// FactoryProperties configures Factory contraptions.
type FactoryProperties struct {
	typ        string
	name       string
	decay      *DecayGadget
	minMax     *MinMaxGadget
	conversion *ConversionGadget
	recipe     *MatchGadget
	craftCost  float64
	blueprint  *MatchGadget
}

func (p *FactoryProperties) Type() string { return p.typ }
func (p *FactoryProperties) Kind() Kind { return KindFactory }
func (p *FactoryProperties) Name() string { return p.name }
func (p *FactoryProperties) Blueprint() *MatchGadget { return p.blueprint }
func (p *FactoryProperties) DecayGadget() *DecayGadget { return p.decay }
func (p *FactoryProperties) MinMaxGadget() *MinMaxGadget { return p.minMax }
func (p *FactoryProperties) Recipe() *MatchGadget { return p.recipe }
func (p *FactoryProperties) CraftCost() float64 { return p.craftCost }
func (p *FactoryProperties) ConversionGadget() *ConversionGadget {
	return p.conversion
}

func (p *FactoryProperties) instantiate(env *Env, loc Location, inv Inventory) Contraption {
	return newFactory(p, env, loc, inv)
}

// PropertiesConfig is the declarative form of a properties file.
type PropertiesConfig struct {
	Kind       Kind              `json:"kind" yaml:"kind"`
	Type       string            `json:"type" yaml:"type"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Grow       *RateConfig       `json:"grow,omitempty" yaml:"grow,omitempty"`
	Decay      *RateConfig       `json:"decay,omitempty" yaml:"decay,omitempty"`
	MinMax     *MinMaxConfig     `json:"minmax,omitempty" yaml:"minmax,omitempty"`
	Conversion *ConversionConfig `json:"conversion,omitempty" yaml:"conversion,omitempty"`
	Match      *MatchConfig      `json:"match,omitempty" yaml:"match,omitempty"`
	Recipe     *MatchConfig      `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	CraftCost  float64           `json:"craft_cost,omitempty" yaml:"craft_cost,omitempty"`
}

// RateConfig configures a DecayGadget or GrowGadget.
type RateConfig struct {
	Rate float64 `json:"rate" yaml:"rate"`
}

// MinMaxConfig configures a MinMaxGadget.
type MinMaxConfig struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ConversionConfig configures a ConversionGadget.
type ConversionConfig struct {
	Inputs []Stack `json:"inputs" yaml:"inputs"`
	Yield  float64 `json:"yield" yaml:"yield"`
}

// MatchConfig configures a MatchGadget.
type MatchConfig struct {
	ItemStacks []Stack `json:"itemstacks" yaml:"itemstacks"`
}

// NewProperties validates cfg and builds the matching Properties variant.
// Materials are checked against m when it is non-empty.
func NewProperties(cfg PropertiesConfig, m *Materials) (Properties, error) {
	if strings.TrimSpace(cfg.Type) == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidProperties)
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}

	minMax, err := cfg.minMax()
	if err != nil {
		return nil, err
	}
	conversion, err := cfg.conversion(m)
	if err != nil {
		return nil, err
	}
	blueprint, err := matchGadget("match", cfg.Match, m)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindGenerator:
		if cfg.Grow == nil {
			return nil, fmt.Errorf("%w: generator %s needs grow", ErrInvalidProperties, cfg.Type)
		}
		p := &GeneratorProperties{
			typ:        cfg.Type,
			name:       name,
			grow:       NewGrowGadget(cfg.Grow.Rate),
			minMax:     minMax,
			conversion: conversion,
			blueprint:  blueprint,
		}
		if cfg.Decay != nil {
			p.decay = NewDecayGadget(cfg.Decay.Rate)
		}
		return p, nil

	case KindFactory:
		if cfg.Decay == nil {
			return nil, fmt.Errorf("%w: factory %s needs decay", ErrInvalidProperties, cfg.Type)
		}
		if cfg.Recipe == nil {
			return nil, fmt.Errorf("%w: factory %s needs recipe", ErrInvalidProperties, cfg.Type)
		}
		if cfg.CraftCost < 0 {
			return nil, fmt.Errorf("%w: factory %s: negative craft_cost", ErrInvalidProperties, cfg.Type)
		}
		recipe, err := matchGadget("recipe", cfg.Recipe, m)
		if err != nil {
			return nil, err
		}
		return &FactoryProperties{
			typ:        cfg.Type,
			name:       name,
			decay:      NewDecayGadget(cfg.Decay.Rate),
			minMax:     minMax,
			conversion: conversion,
			recipe:     recipe,
			craftCost:  cfg.CraftCost,
			blueprint:  blueprint,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidProperties, cfg.Type, cfg.Kind)
	}
}

func (cfg PropertiesConfig) minMax() (*MinMaxGadget, error) {
	if cfg.MinMax == nil {
		return nil, fmt.Errorf("%w: %s needs minmax", ErrInvalidProperties, cfg.Type)
	}
	if cfg.MinMax.Min > cfg.MinMax.Max {
		return nil, fmt.Errorf("%w: %s: min %v above max %v", ErrInvalidProperties, cfg.Type, cfg.MinMax.Min, cfg.MinMax.Max)
	}
	return NewMinMaxGadget(cfg.MinMax.Min, cfg.MinMax.Max), nil
}

func (cfg PropertiesConfig) conversion(m *Materials) (*ConversionGadget, error) {
	if cfg.Conversion == nil {
		return nil, nil
	}
	if cfg.Conversion.Yield <= 0 {
		return nil, fmt.Errorf("%w: %s: conversion yield must be positive", ErrInvalidProperties, cfg.Type)
	}
	inputs, err := normalizeStacks("conversion", cfg.Conversion.Inputs, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProperties, cfg.Type, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s: conversion needs inputs", ErrInvalidProperties, cfg.Type)
	}
	return NewConversionGadget(inputs, cfg.Conversion.Yield), nil
}

func matchGadget(field string, cfg *MatchConfig, m *Materials) (*MatchGadget, error) {
	if cfg == nil {
		return nil, nil
	}
	items, err := normalizeStacks(field, cfg.ItemStacks, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProperties, err)
	}
	return NewMatchGadget(items), nil
}

// normalizeStacks checks configured stacks and namespaces their materials.
func normalizeStacks(field string, stacks []Stack, m *Materials) ([]Stack, error) {
	out := make([]Stack, 0, len(stacks))
	for i, s := range stacks {
		if s.Amount <= 0 {
			return nil, fmt.Errorf("%s[%d]: amount must be positive", field, i)
		}
		if err := m.Validate(s.Material); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		s = s.WithAmount(s.Amount)
		s.Material = normalizeMaterial(s.Material)
		if len(s.Lore) == 0 {
			s.Lore = nil
		}
		out = append(out, s)
	}
	return out, nil
}
