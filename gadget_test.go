package contraptions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecayGadgetTiming(t *testing.T) {
	tests := []struct {
		name   string
		gadget *DecayGadget
	}{
		{"design constants", NewDecayGadget(0.5)},
		{"short", &DecayGadget{rate: 0.25, delay: 7, period: 3}},
		{"delay shorter than period", &DecayGadget{rate: 2, delay: 1, period: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(t)
			o := &stubOwner{id: uuid.New()}
			r := newResource(0, o)
			g := tt.gadget

			h := g.Run(s, r)
			require.NotNil(t, h)
			assert.Equal(t, o.id, h.Owner())

			s.Advance(int(g.delay) - 1)
			assert.Equal(t, 0.0, r.Get())

			s.Step()
			assert.Equal(t, -g.rate*float64(g.delay), r.Get(), "first firing decays rate × delay")

			for n := 1; n <= 3; n++ {
				s.Advance(int(g.period))
				want := -g.rate * float64(int(g.delay)+n*int(g.period))
				assert.InDelta(t, want, r.Get(), 1e-9, "after %d periods", n)
			}
			assert.Len(t, o.updates, 4)
		})
	}
}

func TestGrowGadgetTiming(t *testing.T) {
	s := newTestScheduler(t)
	o := &stubOwner{id: uuid.New()}
	r := newResource(10, o)
	g := NewGrowGadget(0.01)

	g.Run(s, r)
	s.Advance(int(GadgetDelay))
	assert.InDelta(t, 10+0.01*float64(GadgetDelay), r.Get(), 1e-9)

	s.Advance(int(GadgetPeriod))
	assert.InDelta(t, 10+0.01*float64(GadgetDelay+GadgetPeriod), r.Get(), 1e-9)
	assert.Equal(t, 0.01, g.Rate())
}

func TestPeriodicGadgetStopsWhenOwnerRefuses(t *testing.T) {
	s := newTestScheduler(t)
	o := &refusingOwner{stubOwner: stubOwner{id: uuid.New()}}
	r := newResource(0, o)

	NewDecayGadget(1).Run(s, r)
	s.Advance(int(GadgetDelay))

	assert.Equal(t, 0.0, r.Get())
}

// refusingOwner is a destroyed owner whose Exec never runs.
type refusingOwner struct {
	stubOwner
}

func (o *refusingOwner) Exec(func()) bool { return false }

func TestMinMaxGadget(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"inside", 50, 10, 60},
		{"above max", 95, 10, 100},
		{"below min", -95, -10, -100},
		{"at max", 90, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMinMaxGadget(-100, 100)
			o := &clampingOwner{bounds: g}
			r := newResource(tt.start, o)

			r.Change(tt.delta)

			assert.Equal(t, tt.want, r.Get())
		})
	}
}

// clampingOwner clamps its resource on every update.
type clampingOwner struct {
	stubOwner
	bounds *MinMaxGadget
}

func (o *clampingOwner) Update(r *Resource) { o.bounds.Update(r) }

func TestMatchGadget(t *testing.T) {
	items := []Stack{
		{Material: "minecraft:iron_block", Amount: 2},
		{Material: "minecraft:diamond_sword", Amount: 1, Durability: 12, Name: "Edge", Lore: []string{"sharp", "old"}},
	}
	g := NewMatchGadget(items)

	assert.True(t, g.Matches(NewMemoryInventory(9, items...)))
	assert.True(t, g.Matches(NewMemoryInventory(9, items[1], items[0])), "order does not matter")

	mutations := []struct {
		name   string
		mutate func(s *Stack)
	}{
		{"material", func(s *Stack) { s.Material = "minecraft:gold_block" }},
		{"amount", func(s *Stack) { s.Amount++ }},
		{"durability", func(s *Stack) { s.Durability++ }},
		{"name", func(s *Stack) { s.Name += "!" }},
		{"lore", func(s *Stack) { s.Lore = append(s.Lore, "new") }},
		{"lore order", func(s *Stack) { s.Lore = []string{"old", "sharp"} }},
	}
	for i := range items {
		for _, m := range mutations {
			t.Run(m.name, func(t *testing.T) {
				have := []Stack{items[0].WithAmount(items[0].Amount), items[1].WithAmount(items[1].Amount)}
				m.mutate(&have[i])
				assert.False(t, g.Matches(NewMemoryInventory(9, have...)))
			})
		}
	}

	assert.False(t, g.Matches(NewMemoryInventory(9, items[0])), "missing item")
	assert.False(t, g.Matches(NewMemoryInventory(9, append(items, coal)...)), "extra item")
}

func TestMatchGadgetSplitStacks(t *testing.T) {
	g := NewMatchGadget([]Stack{ironIngot.WithAmount(4)})

	// Two stacks of two are a different multiset than one stack of four.
	inv := NewMemoryInventory(9, ironIngot.WithAmount(2), ironIngot.WithAmount(2))
	assert.False(t, g.Matches(inv))
}

func TestMatchGadgetConsume(t *testing.T) {
	items := []Stack{ironBlock.WithAmount(2), coal.WithAmount(3)}
	g := NewMatchGadget(items)

	t.Run("match", func(t *testing.T) {
		inv := NewMemoryInventory(9, items...)
		assert.True(t, g.Consume(inv))
		assert.Empty(t, inv.Stacks())
	})

	t.Run("mismatch leaves inventory unchanged", func(t *testing.T) {
		inv := NewMemoryInventory(9, ironBlock.WithAmount(2), coal.WithAmount(4))
		before := inv.Stacks()

		assert.False(t, g.Consume(inv))
		assert.Equal(t, before, inv.Stacks())
	})
}

func TestConversionGadgetCost(t *testing.T) {
	g := NewConversionGadget([]Stack{coal, ironIngot.WithAmount(2)}, 10)

	tests := []struct {
		amount  float64
		batches int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{10, 1},
		{10.5, 2},
		{92, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.batches, g.batches(tt.amount), "amount %v", tt.amount)
	}

	assert.Equal(t, []Stack{coal.WithAmount(3), ironIngot.WithAmount(6)}, g.Cost(25))
	assert.Equal(t, []Stack{coal, ironIngot.WithAmount(2)}, g.Inputs())
	assert.Equal(t, 10.0, g.Yield())
}

func TestConversionGadgetGenerate(t *testing.T) {
	g := NewConversionGadget([]Stack{coal}, 10)

	t.Run("enough", func(t *testing.T) {
		o := &stubOwner{id: uuid.New()}
		r := newResource(5, o)
		inv := NewMemoryInventory(9, coal.WithAmount(5))

		require.True(t, g.CanGenerate(25, inv))
		assert.True(t, g.Generate(25, inv, r))
		assert.Equal(t, 30.0, r.Get())
		assert.Equal(t, 2, inv.Count(coal))
	})

	t.Run("not enough consumes nothing", func(t *testing.T) {
		o := &stubOwner{id: uuid.New()}
		r := newResource(5, o)
		inv := NewMemoryInventory(9, coal.WithAmount(2))

		assert.False(t, g.CanGenerate(25, inv))
		assert.False(t, g.Generate(25, inv, r))
		assert.Equal(t, 5.0, r.Get())
		assert.Equal(t, 2, inv.Count(coal))
		assert.Empty(t, o.updates)
	})

	t.Run("comparable only", func(t *testing.T) {
		o := &stubOwner{id: uuid.New()}
		r := newResource(0, o)
		named := coal.WithAmount(5)
		named.Name = "Special"
		inv := NewMemoryInventory(9, named)

		assert.False(t, g.Generate(10, inv, r))
	})
}
