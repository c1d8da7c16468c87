package contraptions

// Handler receives contraption lifecycle events. A host bridge implements
// it to reflect contraption state in the world, for example removing the
// block of a destroyed contraption.
type Handler interface {
	HandleCreate(e *EventCreate)
	HandleUpdate(e *EventUpdate)
	HandleDestroy(e *EventDestroy)
}

// NopHandler implements Handler with no-ops. Embed it to handle only some
// events.
type NopHandler struct{}

func (NopHandler) HandleCreate(*EventCreate)   {}
func (NopHandler) HandleUpdate(*EventUpdate)   {}
func (NopHandler) HandleDestroy(*EventDestroy) {}

// Compile-time check that NopHandler implements Handler.
var _ Handler = NopHandler{}

// dispatch delivers event to h.
func dispatch(h Handler, event any) {
	switch e := event.(type) {
	case *EventCreate:
		h.HandleCreate(e)
	case *EventUpdate:
		h.HandleUpdate(e)
	case *EventDestroy:
		h.HandleDestroy(e)
	}
}
