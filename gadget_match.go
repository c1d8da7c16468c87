package contraptions

// MatchGadget only consumes item stacks if they are exactly the contents of
// an inventory. It describes blueprints and recipes.
//
// Format in a properties file:
//
//	"match": {"itemstacks": [
//	  {"material": "minecraft:iron_block", "amount": 1, "durability": 0, "name": "Core", "lore": ["Tier I"]}
//	]}
type MatchGadget struct {
	items []Stack
}

// NewMatchGadget creates a gadget matching items.
func NewMatchGadget(items []Stack) *MatchGadget {
	g := &MatchGadget{items: make([]Stack, 0, len(items))}
	for _, it := range items {
		g.items = append(g.items, it.WithAmount(it.Amount))
	}
	return g
}

// Items returns a copy of the configured item set.
func (g *MatchGadget) Items() []Stack {
	out := make([]Stack, len(g.items))
	for i, it := range g.items {
		out[i] = it.WithAmount(it.Amount)
	}
	return out
}

// Matches reports whether the stacks of inv equal the item set as a
// multiset: same material, amount, durability, name and lore, nothing extra
// and nothing missing.
func (g *MatchGadget) Matches(inv Inventory) bool {
	return exactlyContained(inv.Stacks(), g.items)
}

// Consume removes the item set from inv if it matches. On mismatch inv is
// not touched and false is returned.
func (g *MatchGadget) Consume(inv Inventory) bool {
	if !g.Matches(inv) {
		return false
	}
	return inv.Remove(g.items...) == nil
}

// exactlyContained reports whether have and want are equal multisets.
func exactlyContained(have, want []Stack) bool {
	if len(have) != len(want) {
		return false
	}
	used := make([]bool, len(want))
outer:
	for _, h := range have {
		for j, w := range want {
			if !used[j] && w.Equal(h) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}
