package contraptions

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrUnknownResource is returned when loading a resource a variant
	// does not declare.
	ErrUnknownResource = errors.New("contraptions: unknown resource")

	// ErrDestroyed is returned by operations on a destroyed contraption.
	ErrDestroyed = errors.New("contraptions: contraption destroyed")
)

// Destroyer accepts destruction requests from contraptions whose resources
// crossed their floor. Destroy is called with the contraption's single-writer
// section held.
type Destroyer interface {
	Destroy(c Contraption) bool
}

// DestroyerFunc adapts a function to the Destroyer interface.
type DestroyerFunc func(c Contraption) bool

// Destroy calls f(c).
func (f DestroyerFunc) Destroy(c Contraption) bool {
	return f(c)
}

// Env is the application context handed to contraptions and their gadgets.
type Env struct {
	Scheduler TaskScheduler
	Destroyer Destroyer
	Logger    *slog.Logger
	Materials *Materials

	// publish delivers events to the manager's listeners
	publish func(event any)
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// describe renders stacks with their display names for log lines.
func (e *Env) describe(stacks []Stack) []string {
	var m *Materials
	if e != nil {
		m = e.Materials
	}
	out := make([]string, 0, len(stacks))
	for _, s := range stacks {
		out = append(out, fmt.Sprintf("%d %s", s.Amount, m.Name(s.Material)))
	}
	return out
}

func (e *Env) emit(event any) {
	if e != nil && e.publish != nil {
		e.publish(event)
	}
}

// Contraption is a placed entity holding named resources and scheduled
// behaviour. Variants implement the reaction logic through Update.
//
// Resource mutation and reaction processing for one contraption is
// serialized by Exec. Update and AfterUpdate run on the goroutine that
// changed the resource, with the section held.
type Contraption interface {
	Owner

	// Type returns the properties type identifier.
	Type() string

	// Location returns the block the contraption is placed on.
	Location() Location

	// Inventory returns the inventory attached to the contraption.
	Inventory() Inventory

	// Resources returns resource id → current amount.
	Resources() map[string]float64

	// LoadResources restores amounts from a persisted mapping. Missing ids
	// keep their defaults; unknown ids are an error.
	LoadResources(values map[string]float64) error

	// HasResource reports whether the variant declares id.
	HasResource(id string) bool

	// Resource looks up a resource by id.
	Resource(id string) (*Resource, bool)

	// AfterUpdate is the general hook run after every reaction.
	AfterUpdate()

	// start schedules the variant's periodic gadgets.
	start()

	// core returns the shared contraption state.
	core() *base
}

// base holds the state shared by every variant.
type base struct {
	id  uuid.UUID
	loc Location
	inv Inventory
	env *Env

	// self is the variant embedding this base
	self Contraption

	// mu is the single-writer section
	mu sync.Mutex

	destroyed atomic.Bool

	// tasks holds handles of the contraption's scheduled gadgets
	tasks   []*TaskHandle
	tasksMu sync.Mutex
}

func newBase(env *Env, loc Location, inv Inventory) *base {
	if inv == nil {
		inv = NewMemoryInventory(27)
	}
	return &base{
		id:  uuid.New(),
		loc: loc,
		inv: inv,
		env: env,
	}
}

// ID returns the contraption's identity.
func (b *base) ID() uuid.UUID {
	return b.id
}

// Location returns the block the contraption is placed on.
func (b *base) Location() Location {
	return b.loc
}

// Inventory returns the attached inventory.
func (b *base) Inventory() Inventory {
	return b.inv
}

// Destroyed reports whether the contraption was destroyed.
func (b *base) Destroyed() bool {
	return b.destroyed.Load()
}

// Exec runs fn inside the contraption's single-writer section.
// It is not reentrant: fn must not call Exec on the same contraption.
func (b *base) Exec(fn func()) bool {
	if b.destroyed.Load() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed.Load() {
		return false
	}
	fn()
	return true
}

// AfterUpdate publishes an update event for live contraptions.
func (b *base) AfterUpdate() {
	if b.destroyed.Load() {
		return
	}
	b.env.emit(&EventUpdate{Contraption: b.self})
}

func (b *base) core() *base {
	return b
}

// track keeps a task handle so it is cancelled on destroy. A handle
// scheduled after destruction is cancelled right away.
func (b *base) track(h *TaskHandle) {
	if h == nil {
		return
	}
	b.tasksMu.Lock()
	if b.destroyed.Load() {
		b.tasksMu.Unlock()
		h.Cancel()
		return
	}
	b.tasks = append(b.tasks, h)
	b.tasksMu.Unlock()
}

// Tasks returns the number of live scheduled tasks.
func (b *base) Tasks() int {
	b.tasksMu.Lock()
	defer b.tasksMu.Unlock()

	n := 0
	for _, h := range b.tasks {
		if !h.Cancelled() {
			n++
		}
	}
	return n
}

// markDestroyed flips the terminal flag. Only the first call returns true.
func (b *base) markDestroyed() bool {
	return !b.destroyed.Swap(true)
}

// cancelTasks cancels every tracked handle and anything else the scheduler
// holds for this contraption.
func (b *base) cancelTasks() {
	b.tasksMu.Lock()
	tasks := b.tasks
	b.tasks = nil
	b.tasksMu.Unlock()

	for _, h := range tasks {
		h.Cancel()
	}
	if b.env != nil && b.env.Scheduler != nil {
		b.env.Scheduler.Cancel(b.id)
	}
}

// requestDestroy asks the destroyer to remove this contraption.
func (b *base) requestDestroy() {
	if b.destroyed.Load() || b.env == nil || b.env.Destroyer == nil {
		return
	}
	b.env.Destroyer.Destroy(b.self)
}

// repowerThreshold is the fraction of max energy below which a contraption
// tries to repower from its inventory.
const repowerThreshold = 0.10

// sustain is the energy reaction shared by powered variants: clamp, repower
// below the threshold, and request destruction below zero.
//
// Repowering refills to max when the inventory covers it. Otherwise a
// contraption below zero converts just enough to reach zero.
func (b *base) sustain(energy *Resource, bounds *MinMaxGadget, conversion *ConversionGadget) {
	bounds.Update(energy)
	if b.Destroyed() {
		return
	}

	if energy.Get() < repowerThreshold*bounds.Max() && conversion != nil {
		refill := bounds.Max() - energy.Get()
		switch {
		case conversion.CanGenerate(refill, b.inv):
			b.repower(conversion, refill, energy)
		case energy.Get() < 0 && conversion.CanGenerate(-energy.Get(), b.inv):
			b.repower(conversion, -energy.Get(), energy)
		default:
			b.env.logger().Debug("contraptions: not enough material to repower",
				"location", b.loc,
				"needs", b.env.describe(conversion.Cost(refill)))
		}
		if b.Destroyed() {
			return
		}
	}

	if energy.Get() < 0 {
		b.env.logger().Info("contraptions: out of energy",
			"location", b.loc,
			"energy", energy.Get())
		b.requestDestroy()
	}
}

func (b *base) repower(conversion *ConversionGadget, amount float64, energy *Resource) {
	b.env.logger().Debug("contraptions: repowering",
		"location", b.loc,
		"amount", amount,
		"consumes", b.env.describe(conversion.Cost(amount)))
	conversion.Generate(amount, b.inv, energy)
}

// loadInto copies persisted values into resources, rejecting unknown ids
// before touching anything.
func loadInto(resources map[string]*Resource, values map[string]float64) error {
	for id := range values {
		if _, ok := resources[id]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownResource, id)
		}
	}
	for id, v := range values {
		resources[id].amount = v
	}
	return nil
}
