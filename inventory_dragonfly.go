package contraptions

import (
	"fmt"
	"slices"
	"sync"

	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/world"
)

// DragonflyInventory adapts a Dragonfly container inventory, such as the
// one backing a chest at the contraption's location.
//
// For durable items Stack.Durability holds the damage taken; for other items
// it holds the item metadata value.
type DragonflyInventory struct {
	// mu makes the check-then-remove sequences atomic with respect to other
	// callers going through this adapter
	mu  sync.Mutex
	inv *inventory.Inventory
}

// NewDragonflyInventory wraps inv.
func NewDragonflyInventory(inv *inventory.Inventory) *DragonflyInventory {
	return &DragonflyInventory{inv: inv}
}

// Inventory returns the wrapped Dragonfly inventory.
func (d *DragonflyInventory) Inventory() *inventory.Inventory {
	return d.inv
}

// StackFromItem converts a Dragonfly item stack.
func StackFromItem(s item.Stack) Stack {
	if s.Empty() {
		return Stack{}
	}
	name, meta := s.Item().EncodeItem()
	durability := int(meta)
	if d, ok := s.Item().(item.Durable); ok {
		durability = d.DurabilityInfo().MaxDurability - s.Durability()
	}
	return Stack{
		Material:   name,
		Amount:     s.Count(),
		Durability: durability,
		Name:       s.CustomName(),
		Lore:       slices.Clone(s.Lore()),
	}
}

// ItemFromStack converts s into a Dragonfly item stack.
func ItemFromStack(s Stack) (item.Stack, error) {
	it, ok := world.ItemByName(s.Material, int16(s.Durability))
	if !ok {
		// Durable items are registered without metadata.
		it, ok = world.ItemByName(s.Material, 0)
		if ok {
			if _, durable := it.(item.Durable); !durable {
				ok = false
			}
		}
	}
	if !ok {
		return item.Stack{}, fmt.Errorf("contraptions: unknown item %s", s.Material)
	}

	st := item.NewStack(it, s.Amount)
	if d, ok := it.(item.Durable); ok && s.Durability > 0 {
		st = st.WithDurability(d.DurabilityInfo().MaxDurability - s.Durability)
	}
	if s.Name != "" {
		st = st.WithCustomName(s.Name)
	}
	if len(s.Lore) > 0 {
		st = st.WithLore(s.Lore...)
	}
	return st, nil
}

// Stacks returns every non-empty stack.
func (d *DragonflyInventory) Stacks() []Stack {
	items := d.inv.Items()
	out := make([]Stack, 0, len(items))
	for _, it := range items {
		if s := StackFromItem(it); !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the total amount of items comparable to kind.
func (d *DragonflyInventory) Count(kind Stack) int {
	return countIn(d.Stacks(), kind)
}

// Add inserts s. A partial insert is rolled back.
func (d *DragonflyInventory) Add(s Stack) error {
	if s.Empty() {
		return nil
	}
	st, err := ItemFromStack(s)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.inv.AddItem(st)
	if err != nil {
		if n > 0 {
			_ = d.inv.RemoveItemFunc(n, func(it item.Stack) bool {
				return StackFromItem(it).Comparable(s)
			})
		}
		return fmt.Errorf("%w: adding %s", ErrInventoryFull, s)
	}
	return nil
}

// Remove takes the given stacks or nothing at all.
func (d *DragonflyInventory) Remove(stacks ...Stack) error {
	want := demand(stacks)

	d.mu.Lock()
	defer d.mu.Unlock()

	have := d.Stacks()
	for _, w := range want {
		if n := countIn(have, w); n < w.Amount {
			return fmt.Errorf("%w: need %s, have %d", ErrInsufficientItems, w, n)
		}
	}
	for _, w := range want {
		w := w
		if err := d.inv.RemoveItemFunc(w.Amount, func(it item.Stack) bool {
			return StackFromItem(it).Comparable(w)
		}); err != nil {
			return fmt.Errorf("contraptions: remove %s: %w", w, err)
		}
	}
	return nil
}
