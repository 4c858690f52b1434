package dummy

import "github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"

// Publisher for testing - collects emitted events.
type Publisher struct {
	Events []*pubsub.Event
}

func (pub *Publisher) ID() string {
	return "dummy"
}

func (pub *Publisher) Emit(ev *pubsub.Event) {
	pub.Events = append(pub.Events, ev)
	ev.Published.Set()
}

func (pub *Publisher) Close() {
}
