package contraptions

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	coal      = Stack{Material: "minecraft:coal", Amount: 1}
	ironBlock = Stack{Material: "minecraft:iron_block", Amount: 1}
	ironIngot = Stack{Material: "minecraft:iron_ingot", Amount: 1}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generatorConfig(typ string) PropertiesConfig {
	return PropertiesConfig{
		Kind:   KindGenerator,
		Type:   typ,
		Grow:   &RateConfig{Rate: 0.01},
		MinMax: &MinMaxConfig{Min: -100, Max: 100},
		Conversion: &ConversionConfig{
			Inputs: []Stack{coal},
			Yield:  10,
		},
	}
}

func factoryConfig(typ string) PropertiesConfig {
	return PropertiesConfig{
		Kind:   KindFactory,
		Type:   typ,
		Decay:  &RateConfig{Rate: 0.02},
		MinMax: &MinMaxConfig{Min: -50, Max: 200},
		Recipe: &MatchConfig{ItemStacks: []Stack{
			ironIngot.WithAmount(4),
		}},
		CraftCost: 25,
	}
}

func mustProperties(t *testing.T, cfg PropertiesConfig) Properties {
	t.Helper()
	p, err := NewProperties(cfg, nil)
	require.NoError(t, err)
	return p
}

// newTestManager returns a stopped manager; drive it with Scheduler().Step.
func newTestManager(t *testing.T, props ...Properties) *Manager {
	t.Helper()
	m, err := NewBuilder().
		Logger(discardLogger()).
		Workers(2).
		Properties(props...).
		Build()
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

// recorder collects lifecycle events.
type recorder struct {
	mu       sync.Mutex
	created  []*EventCreate
	updated  int
	destroys []*EventDestroy
}

func (r *recorder) HandleCreate(e *EventCreate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e)
}

func (r *recorder) HandleUpdate(e *EventUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated++
}

func (r *recorder) HandleDestroy(e *EventDestroy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroys = append(r.destroys, e)
}

func (r *recorder) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updated
}

func (r *recorder) Destroys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.destroys)
}
