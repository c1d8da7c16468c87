package contraptions

import "github.com/google/uuid"

// Owner is the contraption side of the Resource observer contract.
// Every Resource holds exactly one Owner for its whole lifetime.
type Owner interface {
	// ID returns the owner's identity, used to key its scheduled tasks.
	ID() uuid.UUID

	// Exec runs fn inside the owner's single-writer section.
	// Returns false without running fn if the owner has been destroyed.
	Exec(fn func()) bool

	// Update is the owner's reaction to a mutation of r.
	Update(r *Resource)

	// Destroyed reports whether the owner reached its terminal state.
	Destroyed() bool
}

// Resource is an observable amount owned by a single contraption.
//
// Resource performs no clamping: bounds are policy and are enforced by the
// owner when it reacts to a change. Change must only be called from within
// the owner's Exec section; the owner's reaction runs synchronously on the
// calling goroutine before Change returns.
type Resource struct {
	amount float64
	owner  Owner
}

// newResource creates a resource bound to owner.
func newResource(amount float64, owner Owner) *Resource {
	return &Resource{amount: amount, owner: owner}
}

// Get returns the current amount.
func (r *Resource) Get() float64 {
	return r.amount
}

// Change applies the signed delta and notifies the owner.
// A destroyed owner is not notified.
func (r *Resource) Change(delta float64) {
	r.amount += delta
	if r.owner.Destroyed() {
		return
	}
	r.owner.Update(r)
}

// Owner returns the contraption owning this resource.
func (r *Resource) Owner() Owner {
	return r.owner
}
