package contraptions

// GrowGadget periodically adds rate × elapsed ticks to a resource.
//
// Format in a properties file:
//
//	"grow": {"rate": 0.05}
type GrowGadget struct {
	rate   float64
	delay  Tick
	period Tick
}

// NewGrowGadget creates a grow gadget adding rate per tick.
func NewGrowGadget(rate float64) *GrowGadget {
	return &GrowGadget{rate: rate, delay: GadgetDelay, period: GadgetPeriod}
}

// Rate returns the amount added per tick.
func (g *GrowGadget) Rate() float64 {
	return g.rate
}

// Run schedules the growth of r.
func (g *GrowGadget) Run(s TaskScheduler, r *Resource) *TaskHandle {
	return runPeriodic(s, r, g.rate, g.delay, g.period)
}
