package contraptions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrUnknownType is returned for a type missing from the registry.
	ErrUnknownType = errors.New("contraptions: unknown type")

	// ErrDuplicateType is returned when registering a type twice.
	ErrDuplicateType = errors.New("contraptions: duplicate type")

	// ErrOccupied is returned when a location already holds a contraption.
	ErrOccupied = errors.New("contraptions: location occupied")

	// ErrBlueprintMismatch is returned by Build when the inventory is not
	// exactly the type's blueprint.
	ErrBlueprintMismatch = errors.New("contraptions: inventory does not match blueprint")
)

// Manager is the central contraptions coordinator.
// It owns the location → contraption registry, the type → properties
// registry, the scheduler and persistence.
type Manager struct {
	env       *Env
	scheduler *Scheduler
	log       *slog.Logger
	materials *Materials

	// inventories resolves the inventory of a restored contraption
	inventories func(Location) Inventory

	// contraptions holds every live contraption by location
	contraptions   map[Location]Contraption
	contraptionsMu sync.RWMutex

	// properties holds the shared configuration by type
	properties   map[string]Properties
	propertiesMu sync.RWMutex

	handlers   []Handler
	handlersMu sync.RWMutex
}

// newManager creates a new manager.
func newManager(log *slog.Logger, scheduler *Scheduler, materials *Materials, inventories func(Location) Inventory) *Manager {
	m := &Manager{
		scheduler:    scheduler,
		log:          log,
		materials:    materials,
		inventories:  inventories,
		contraptions: make(map[Location]Contraption),
		properties:   make(map[string]Properties),
	}
	m.env = &Env{
		Scheduler: scheduler,
		Destroyer: DestroyerFunc(m.destroy),
		Logger:    log,
		Materials: materials,
		publish:   m.publish,
	}
	return m
}

// Scheduler returns the manager's scheduler.
func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

// Materials returns the material table.
func (m *Manager) Materials() *Materials {
	return m.materials
}

// Start starts the scheduler's tick loop.
func (m *Manager) Start() {
	m.scheduler.Start()
}

// Shutdown stops the scheduler. Live contraptions stay registered so they
// can still be saved.
func (m *Manager) Shutdown() {
	m.scheduler.Stop()
}

// Handle registers a lifecycle event handler.
func (m *Manager) Handle(h Handler) {
	if h == nil {
		return
	}
	m.handlersMu.Lock()
	m.handlers = append(m.handlers, h)
	m.handlersMu.Unlock()
}

// publish delivers event to every handler.
func (m *Manager) publish(event any) {
	m.handlersMu.RLock()
	handlers := m.handlers
	m.handlersMu.RUnlock()

	for _, h := range handlers {
		dispatch(h, event)
	}
}

// RegisterProperties adds p to the type registry.
func (m *Manager) RegisterProperties(p Properties) error {
	m.propertiesMu.Lock()
	defer m.propertiesMu.Unlock()

	if _, ok := m.properties[p.Type()]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateType, p.Type())
	}
	m.properties[p.Type()] = p
	return nil
}

// Properties returns the registered properties for typ.
func (m *Manager) Properties(typ string) (Properties, bool) {
	m.propertiesMu.RLock()
	defer m.propertiesMu.RUnlock()
	p, ok := m.properties[typ]
	return p, ok
}

// Types returns every registered type in sorted order.
func (m *Manager) Types() []string {
	m.propertiesMu.RLock()
	defer m.propertiesMu.RUnlock()

	types := make([]string, 0, len(m.properties))
	for t := range m.properties {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// LoadProperties parses one configuration file and registers it by type.
func (m *Manager) LoadProperties(path string) error {
	p, err := ReadProperties(path, m.materials)
	if err != nil {
		return err
	}
	if err := m.RegisterProperties(p); err != nil {
		return err
	}
	m.log.Info("contraptions: loaded properties",
		"type", p.Type(),
		"kind", p.Kind(),
		"source", path)
	return nil
}

// LoadPropertiesDir loads every properties file in dir. A malformed file is
// skipped and reported; the rest of the directory still loads.
func (m *Manager) LoadPropertiesDir(dir string) LoadReport {
	var report LoadReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		report.fail(dir, err)
		m.log.Warn("contraptions: cannot read properties directory", "source", dir, "error", err)
		return report
	}

	for _, e := range entries {
		if e.IsDir() || !propertiesExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := m.LoadProperties(path); err != nil {
			report.fail(path, err)
			m.log.Warn("contraptions: skipped properties file", "source", path, "error", err)
			continue
		}
		report.Loaded++
	}
	return report
}

// Create places a new contraption of type typ at loc and starts its tasks.
// A nil inventory is replaced by the manager's inventory resolver.
func (m *Manager) Create(typ string, loc Location, inv Inventory) (Contraption, error) {
	p, ok := m.Properties(typ)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	c, err := m.place(p, loc, inv, nil)
	if err != nil {
		return nil, err
	}
	m.publish(&EventCreate{Contraption: c})
	return c, nil
}

// Build creates a contraption only if inv holds exactly the type's
// blueprint, consuming it. Types without a blueprint are created directly.
func (m *Manager) Build(typ string, loc Location, inv Inventory) (Contraption, error) {
	p, ok := m.Properties(typ)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	if _, ok := m.At(loc); ok {
		return nil, fmt.Errorf("%w: %s", ErrOccupied, loc)
	}
	bp := p.Blueprint()
	if bp != nil && !bp.Consume(inv) {
		return nil, fmt.Errorf("%w: %s", ErrBlueprintMismatch, typ)
	}
	c, err := m.Create(typ, loc, inv)
	if err != nil && bp != nil {
		m.refund(inv, bp.Items())
	}
	return c, err
}

// refund gives a consumed blueprint back after a lost placement race.
func (m *Manager) refund(inv Inventory, items []Stack) {
	for _, s := range items {
		if err := inv.Add(s); err != nil {
			m.log.Warn("contraptions: cannot refund blueprint",
				"item", m.materials.Name(s.Material),
				"amount", s.Amount,
				"error", err)
		}
	}
}

// place instantiates, restores, registers and starts a contraption.
func (m *Manager) place(p Properties, loc Location, inv Inventory, values map[string]float64) (Contraption, error) {
	if inv == nil && m.inventories != nil {
		inv = m.inventories(loc)
	}
	c := p.instantiate(m.env, loc, inv)
	if values != nil {
		if err := c.LoadResources(values); err != nil {
			return nil, err
		}
	}

	m.contraptionsMu.Lock()
	if _, ok := m.contraptions[loc]; ok {
		m.contraptionsMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrOccupied, loc)
	}
	m.contraptions[loc] = c
	m.contraptionsMu.Unlock()

	c.start()
	return c, nil
}

// Destroy cancels every task of c and removes it from the registry. It waits
// for any reaction in progress on c to finish. Only the first call for a
// contraption has any effect.
//
// Destroy enters c's single-writer section, so it must not be called from
// inside c.Exec or Interact on c. Reaction logic destroys through
// Env.Destroyer instead.
func (m *Manager) Destroy(c Contraption) bool {
	if c == nil {
		return false
	}
	destroyed := false
	c.Exec(func() { destroyed = m.destroy(c) })
	return destroyed
}

// destroy is Destroy for a caller already holding c's section.
func (m *Manager) destroy(c Contraption) bool {
	if c == nil {
		return false
	}
	b := c.core()
	if !b.markDestroyed() {
		return false
	}
	b.cancelTasks()

	m.contraptionsMu.Lock()
	if cur, ok := m.contraptions[c.Location()]; ok && cur == c {
		delete(m.contraptions, c.Location())
	}
	m.contraptionsMu.Unlock()

	m.log.Info("contraptions: destroyed",
		"type", c.Type(),
		"location", c.Location())
	m.publish(&EventDestroy{Contraption: c, Resources: c.Resources()})
	return true
}

// DestroyAt destroys the contraption at loc, if any.
func (m *Manager) DestroyAt(loc Location) bool {
	c, ok := m.At(loc)
	if !ok {
		return false
	}
	return m.Destroy(c)
}

// At returns the contraption at loc.
func (m *Manager) At(loc Location) (Contraption, bool) {
	m.contraptionsMu.RLock()
	defer m.contraptionsMu.RUnlock()
	c, ok := m.contraptions[loc]
	return c, ok
}

// All returns a snapshot of every live contraption.
func (m *Manager) All() []Contraption {
	m.contraptionsMu.RLock()
	defer m.contraptionsMu.RUnlock()

	out := make([]Contraption, 0, len(m.contraptions))
	for _, c := range m.contraptions {
		out = append(out, c)
	}
	return out
}

// Count returns the number of live contraptions.
func (m *Manager) Count() int {
	m.contraptionsMu.RLock()
	defer m.contraptionsMu.RUnlock()
	return len(m.contraptions)
}

// Near returns the live contraptions in world whose block centre lies within
// radius of point, closest first.
func (m *Manager) Near(world string, point mgl64.Vec3, radius float64) []Contraption {
	var out []Contraption
	for _, c := range m.All() {
		if c.Location().Within(world, point, radius) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location().Vec3().Sub(point).Len() < out[j].Location().Vec3().Sub(point).Len()
	})
	return out
}

// Interact runs fn inside the single-writer section of the contraption at
// loc. It is the dispatch path for host events such as inventory clicks.
// Returns false if there is no live contraption at loc.
func (m *Manager) Interact(loc Location, fn func(c Contraption)) bool {
	c, ok := m.At(loc)
	if !ok {
		return false
	}
	return c.Exec(func() { fn(c) })
}

// Snapshot returns the persisted form of every live contraption, sorted by
// location.
func (m *Manager) Snapshot() []Record {
	all := m.All()
	records := make([]Record, 0, len(all))
	for _, c := range all {
		var values map[string]float64
		if !c.Exec(func() { values = c.Resources() }) {
			continue
		}
		records = append(records, Record{
			Location:  c.Location(),
			Type:      c.Type(),
			Resources: values,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Location, records[j].Location
		if a.World != b.World {
			return a.World < b.World
		}
		for k := 0; k < 3; k++ {
			if a.Pos[k] != b.Pos[k] {
				return a.Pos[k] < b.Pos[k]
			}
		}
		return false
	})
	return records
}

// SaveContraptions writes every live contraption to store.
func (m *Manager) SaveContraptions(ctx context.Context, store Store) error {
	records := m.Snapshot()
	if err := store.Save(ctx, records); err != nil {
		return fmt.Errorf("contraptions: save %s: %w", store.Name(), err)
	}
	m.log.Info("contraptions: saved", "count", len(records), "source", store.Name())
	return nil
}

// LoadContraptions restores the population from store. Entries with an
// unknown type, an occupied location or unreadable resources are skipped and
// reported; the rest still load.
func (m *Manager) LoadContraptions(ctx context.Context, store Store) LoadReport {
	var report LoadReport

	records, failures, err := store.Load(ctx)
	if err != nil {
		report.fail(store.Name(), err)
		m.log.Warn("contraptions: cannot read save", "source", store.Name(), "error", err)
		return report
	}
	for _, f := range failures {
		report.Failures = append(report.Failures, f)
		m.log.Warn("contraptions: skipped save entry", "source", f.Source, "error", f.Err)
	}

	for _, rec := range records {
		source := fmt.Sprintf("%s:%s", store.Name(), rec.Location)
		p, ok := m.Properties(rec.Type)
		if !ok {
			err := fmt.Errorf("%w %q", ErrUnknownType, rec.Type)
			report.fail(source, err)
			m.log.Warn("contraptions: skipped save entry", "source", source, "error", err)
			continue
		}
		c, err := m.place(p, rec.Location, nil, rec.Resources)
		if err != nil {
			report.fail(source, err)
			m.log.Warn("contraptions: skipped save entry", "source", source, "error", err)
			continue
		}
		report.Loaded++
		m.publish(&EventCreate{Contraption: c, Restored: true})
	}

	m.log.Info("contraptions: loaded",
		"count", report.Loaded,
		"skipped", len(report.Failures),
		"source", store.Name())
	return report
}
