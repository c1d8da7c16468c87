package contraptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T, cfg PropertiesConfig, stacks ...Stack) (*Manager, *Factory, *recorder) {
	t.Helper()
	m := newTestManager(t, mustProperties(t, cfg))
	rec := &recorder{}
	m.Handle(rec)

	c, err := m.Create(cfg.Type, At("world", 5, 64, 5), NewMemoryInventory(27, stacks...))
	require.NoError(t, err)
	f, ok := c.(*Factory)
	require.True(t, ok)
	return m, f, rec
}

func craft(m *Manager, f *Factory) error {
	var err error
	if !m.Interact(f.Location(), func(Contraption) { err = f.Craft() }) {
		return ErrDestroyed
	}
	return err
}

func TestFactoryStartsFull(t *testing.T) {
	_, f, _ := newTestFactory(t, factoryConfig("furnace"))

	assert.Equal(t, map[string]float64{EnergyKey: 200}, f.Resources())
	assert.True(t, f.HasResource(EnergyKey))
	assert.False(t, f.HasResource(TerritoryKey))
	_, ok := f.Resource(TerritoryKey)
	assert.False(t, ok)
	assert.Equal(t, "furnace", f.Type())
	assert.Equal(t, 25.0, f.Properties().CraftCost())
}

func TestFactoryDecays(t *testing.T) {
	m, f, _ := newTestFactory(t, factoryConfig("furnace"))

	m.Scheduler().Advance(int(GadgetDelay))

	assert.InDelta(t, 180.0, f.Resources()[EnergyKey], 1e-9)
}

func TestFactoryCraft(t *testing.T) {
	m, f, rec := newTestFactory(t, factoryConfig("furnace"), ironIngot.WithAmount(4))

	require.NoError(t, craft(m, f))

	assert.Equal(t, 1, f.Crafts())
	assert.Equal(t, 175.0, f.Resources()[EnergyKey])
	assert.Empty(t, f.Inventory().Stacks())
	assert.Equal(t, 1, rec.Updates())

	assert.ErrorIs(t, craft(m, f), ErrRecipeMismatch)
	assert.Equal(t, 1, f.Crafts())
}

func TestFactoryCraftMismatchLeavesInventory(t *testing.T) {
	m, f, _ := newTestFactory(t, factoryConfig("furnace"), ironIngot.WithAmount(5))
	before := f.Inventory().Stacks()

	assert.ErrorIs(t, craft(m, f), ErrRecipeMismatch)

	assert.Equal(t, before, f.Inventory().Stacks())
	assert.Equal(t, 200.0, f.Resources()[EnergyKey])
}

func TestFactoryCraftInsufficientEnergy(t *testing.T) {
	m, f, _ := newTestFactory(t, factoryConfig("furnace"), ironIngot.WithAmount(4))
	require.True(t, f.Exec(func() {
		require.NoError(t, f.LoadResources(map[string]float64{EnergyKey: 10}))
	}))

	assert.ErrorIs(t, craft(m, f), ErrInsufficientEnergy)
	assert.Equal(t, 4, f.Inventory().Count(ironIngot))
	assert.Equal(t, 0, f.Crafts())
}

func TestFactoryRepowers(t *testing.T) {
	cfg := factoryConfig("furnace")
	cfg.Conversion = &ConversionConfig{Inputs: []Stack{coal}, Yield: 50}
	m, f, _ := newTestFactory(t, cfg, ironIngot.WithAmount(4))
	require.True(t, f.Exec(func() {
		require.NoError(t, f.LoadResources(map[string]float64{EnergyKey: 30}))
	}))

	// 30 - 25 = 5 is below the threshold of 20, with nothing to convert.
	require.NoError(t, craft(m, f))
	assert.Equal(t, 5.0, f.Resources()[EnergyKey])
	assert.False(t, f.Destroyed())

	// The deficit of 196 takes ceil(196/50) coal.
	require.NoError(t, f.Inventory().Add(coal.WithAmount(5)))
	require.True(t, change(t, m, f, EnergyKey, -1))

	assert.Equal(t, 200.0, f.Resources()[EnergyKey])
	assert.Equal(t, 1, f.Inventory().Count(coal))
}

func TestFactoryDestroyedWhenEnergyRunsOut(t *testing.T) {
	m, f, rec := newTestFactory(t, factoryConfig("furnace"))
	require.True(t, f.Exec(func() {
		require.NoError(t, f.LoadResources(map[string]float64{EnergyKey: 0.5}))
	}))

	m.Scheduler().Advance(int(GadgetDelay + GadgetPeriod))

	assert.True(t, f.Destroyed())
	assert.Equal(t, 1, rec.Destroys())
	assert.InDelta(t, -19.5, f.Resources()[EnergyKey], 1e-9)
	assert.ErrorIs(t, f.Craft(), ErrDestroyed)
	assert.ErrorIs(t, craft(m, f), ErrDestroyed)
}
