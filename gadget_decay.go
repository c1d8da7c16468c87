package contraptions

// Design constants for periodic gadgets, in ticks.
const (
	// GadgetDelay is the delay before a periodic gadget first fires.
	GadgetDelay Tick = 1000

	// GadgetPeriod is the interval between later firings.
	GadgetPeriod Tick = 1000
)

// DecayGadget periodically removes rate × elapsed ticks from a resource.
//
// Format in a properties file:
//
//	"decay": {"rate": 0.01}
type DecayGadget struct {
	rate   float64
	delay  Tick
	period Tick
}

// NewDecayGadget creates a decay gadget removing rate per tick.
func NewDecayGadget(rate float64) *DecayGadget {
	return &DecayGadget{rate: rate, delay: GadgetDelay, period: GadgetPeriod}
}

// Rate returns the amount removed per tick.
func (g *DecayGadget) Rate() float64 {
	return g.rate
}

// Run schedules the decay of r. The returned handle must be kept by the
// resource's owner so it can be cancelled on destroy.
func (g *DecayGadget) Run(s TaskScheduler, r *Resource) *TaskHandle {
	return runPeriodic(s, r, -g.rate, g.delay, g.period)
}

// runPeriodic applies rate × elapsed to r on every firing, inside the
// owner's single-writer section. Firings after the owner is destroyed do
// nothing.
func runPeriodic(s TaskScheduler, r *Resource, rate float64, delay, period Tick) *TaskHandle {
	owner := r.Owner()
	return s.Repeat(owner.ID(), delay, period, func(elapsed Tick) {
		owner.Exec(func() {
			r.Change(rate * float64(elapsed))
		})
	})
}
