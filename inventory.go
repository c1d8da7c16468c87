package contraptions

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrInsufficientItems is returned when a removal asks for more than the
	// inventory holds. The inventory is left untouched.
	ErrInsufficientItems = errors.New("contraptions: insufficient items")

	// ErrInventoryFull is returned when an addition does not fit.
	// The inventory is left untouched.
	ErrInventoryFull = errors.New("contraptions: inventory full")
)

// MaxStackSize is the largest amount a single slot holds.
const MaxStackSize = 64

// Stack is a counted item stack. Two stacks of the same kind differ only in
// Amount.
type Stack struct {
	Material   string   `json:"material" yaml:"material"`
	Amount     int      `json:"amount" yaml:"amount"`
	Durability int      `json:"durability,omitempty" yaml:"durability,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Lore       []string `json:"lore,omitempty" yaml:"lore,omitempty"`
}

// Empty reports whether the stack holds nothing.
func (s Stack) Empty() bool {
	return s.Material == "" || s.Amount <= 0
}

// Comparable reports whether s and o are the same kind of item:
// material, durability, display name and lore all equal.
func (s Stack) Comparable(o Stack) bool {
	return s.Material == o.Material &&
		s.Durability == o.Durability &&
		s.Name == o.Name &&
		slices.Equal(s.Lore, o.Lore)
}

// Equal reports whether s and o are comparable and hold the same amount.
func (s Stack) Equal(o Stack) bool {
	return s.Amount == o.Amount && s.Comparable(o)
}

// WithAmount returns a copy of s holding n items.
func (s Stack) WithAmount(n int) Stack {
	s.Amount = n
	s.Lore = slices.Clone(s.Lore)
	return s
}

func (s Stack) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%s", s.Amount, s.Material)
	if s.Durability != 0 {
		fmt.Fprintf(&b, ":%d", s.Durability)
	}
	if s.Name != "" {
		fmt.Fprintf(&b, " %q", s.Name)
	}
	if len(s.Lore) > 0 {
		fmt.Fprintf(&b, " lore=%q", s.Lore)
	}
	return b.String()
}

// Inventory is the item-holding capability a contraption is attached to.
// Implementations must be safe for concurrent use.
type Inventory interface {
	// Stacks returns a copy of every non-empty stack.
	Stacks() []Stack

	// Count returns the total amount of items comparable to kind.
	Count(kind Stack) int

	// Add inserts s, or returns ErrInventoryFull without mutation.
	Add(s Stack) error

	// Remove takes every given stack's amount of its kind, or returns
	// ErrInsufficientItems without mutation.
	Remove(stacks ...Stack) error
}

// demand folds stacks into one entry per kind with summed amounts.
func demand(stacks []Stack) []Stack {
	var out []Stack
outer:
	for _, s := range stacks {
		if s.Empty() {
			continue
		}
		for i := range out {
			if out[i].Comparable(s) {
				out[i].Amount += s.Amount
				continue outer
			}
		}
		out = append(out, s.WithAmount(s.Amount))
	}
	return out
}

// countIn sums the amounts of stacks comparable to kind.
func countIn(stacks []Stack, kind Stack) int {
	n := 0
	for _, s := range stacks {
		if !s.Empty() && s.Comparable(kind) {
			n += s.Amount
		}
	}
	return n
}

// MemoryInventory is a fixed-size slot inventory held in memory.
type MemoryInventory struct {
	mu    sync.Mutex
	slots []Stack
}

// NewMemoryInventory creates an inventory with size slots holding stacks.
func NewMemoryInventory(size int, stacks ...Stack) *MemoryInventory {
	inv := &MemoryInventory{slots: make([]Stack, size)}
	for i, s := range stacks {
		if i >= size {
			break
		}
		inv.slots[i] = s.WithAmount(s.Amount)
	}
	return inv
}

// Size returns the number of slots.
func (inv *MemoryInventory) Size() int {
	return len(inv.slots)
}

// Slot returns the stack held in slot i.
func (inv *MemoryInventory) Slot(i int) Stack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.slots[i].WithAmount(inv.slots[i].Amount)
}

// SetSlot replaces the stack held in slot i.
func (inv *MemoryInventory) SetSlot(i int, s Stack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.slots[i] = s.WithAmount(s.Amount)
}

// Stacks returns a copy of every non-empty stack in slot order.
func (inv *MemoryInventory) Stacks() []Stack {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]Stack, 0, len(inv.slots))
	for _, s := range inv.slots {
		if !s.Empty() {
			out = append(out, s.WithAmount(s.Amount))
		}
	}
	return out
}

// Count returns the total amount of items comparable to kind.
func (inv *MemoryInventory) Count(kind Stack) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return countIn(inv.slots, kind)
}

// Add merges s into matching stacks first and then into empty slots.
func (inv *MemoryInventory) Add(s Stack) error {
	if s.Empty() {
		return nil
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	room := 0
	for _, slot := range inv.slots {
		switch {
		case slot.Empty():
			room += MaxStackSize
		case slot.Comparable(s):
			room += max(MaxStackSize-slot.Amount, 0)
		}
	}
	if room < s.Amount {
		return fmt.Errorf("%w: adding %s", ErrInventoryFull, s)
	}

	left := s.Amount
	for i := range inv.slots {
		if left == 0 {
			break
		}
		if slot := inv.slots[i]; !slot.Empty() && slot.Comparable(s) {
			n := min(MaxStackSize-slot.Amount, left)
			if n > 0 {
				inv.slots[i].Amount += n
				left -= n
			}
		}
	}
	for i := range inv.slots {
		if left == 0 {
			break
		}
		if inv.slots[i].Empty() {
			n := min(MaxStackSize, left)
			inv.slots[i] = s.WithAmount(n)
			left -= n
		}
	}
	return nil
}

// Remove takes the given stacks or nothing at all.
func (inv *MemoryInventory) Remove(stacks ...Stack) error {
	want := demand(stacks)

	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, w := range want {
		if have := countIn(inv.slots, w); have < w.Amount {
			return fmt.Errorf("%w: need %s, have %d", ErrInsufficientItems, w, have)
		}
	}

	for _, w := range want {
		left := w.Amount
		for i := range inv.slots {
			if left == 0 {
				break
			}
			slot := inv.slots[i]
			if slot.Empty() || !slot.Comparable(w) {
				continue
			}
			n := min(slot.Amount, left)
			inv.slots[i].Amount -= n
			left -= n
			if inv.slots[i].Amount == 0 {
				inv.slots[i] = Stack{}
			}
		}
	}
	return nil
}
