package contraptions

import (
	"log/slog"
	"time"
)

// Builder configures a Manager before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	log         *slog.Logger
	tickRate    time.Duration
	workers     int
	materials   *Materials
	inventories func(Location) Inventory
	handlers    []Handler
	properties  []Properties
}

// NewBuilder creates a new contraptions builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Logger sets the logger used by the manager and its scheduler.
// Defaults to slog.Default().
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// TickRate sets the scheduler tick interval. Defaults to 50ms (20 TPS).
func (b *Builder) TickRate(d time.Duration) *Builder {
	b.tickRate = d
	return b
}

// Workers sets the size of the scheduler worker pool.
// Defaults to GOMAXPROCS.
func (b *Builder) Workers(n int) *Builder {
	b.workers = n
	return b
}

// Materials sets the material table used to validate properties files.
// Without one every material is accepted.
func (b *Builder) Materials(m *Materials) *Builder {
	b.materials = m
	return b
}

// Inventories sets the resolver for the inventory of a contraption created
// without one, including every contraption restored from a store.
//
// Example:
//
//	builder.Inventories(func(loc contraptions.Location) contraptions.Inventory {
//	    return contraptions.NewDragonflyInventory(chestAt(loc))
//	})
func (b *Builder) Inventories(fn func(Location) Inventory) *Builder {
	b.inventories = fn
	return b
}

// Listener registers a lifecycle event handler.
func (b *Builder) Listener(h Handler) *Builder {
	b.handlers = append(b.handlers, h)
	return b
}

// Properties registers contraption types up front.
func (b *Builder) Properties(p ...Properties) *Builder {
	b.properties = append(b.properties, p...)
	return b
}

// Build creates the Manager without starting its scheduler.
// Drive it with Scheduler().Step, or call Start later.
func (b *Builder) Build() (*Manager, error) {
	log := b.log
	if log == nil {
		log = slog.Default()
	}

	m := newManager(log, NewScheduler(b.tickRate, b.workers, log), b.materials, b.inventories)
	for _, h := range b.handlers {
		m.Handle(h)
	}
	for _, p := range b.properties {
		if err := m.RegisterProperties(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Init builds the Manager and starts its scheduler.
// Multiple Manager instances can coexist, each with its own registry and
// scheduler.
func (b *Builder) Init() (*Manager, error) {
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	m.Start()
	return m, nil
}
