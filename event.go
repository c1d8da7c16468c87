package contraptions

// Event types are delivered to every Handler registered with the Manager.

// EventCreate is emitted after a contraption is registered and its tasks
// are started, both for new placements and for contraptions restored from a
// store.
type EventCreate struct {
	Contraption Contraption

	// Restored is true when the contraption came from LoadContraptions.
	Restored bool
}

// EventUpdate is emitted after a contraption finished reacting to a
// resource change. It is delivered inside the contraption's single-writer
// section, so handlers may read resources but must not call Exec on the
// same contraption.
type EventUpdate struct {
	Contraption Contraption
}

// EventDestroy is emitted once per contraption, after its tasks are
// cancelled and it is removed from the registry.
type EventDestroy struct {
	Contraption Contraption

	// Resources holds the amounts at the moment of destruction.
	Resources map[string]float64
}
