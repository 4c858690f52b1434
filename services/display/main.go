// Service rendering a console status panel from bus events, for a small
// screen attached to the Pi. Updates are rate limited to avoid flicker.
package display

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

var Clock = func() time.Time {
	return time.Now()
}

const header = "  SENTRY - RESTRICTED AREA MONITOR"

// RefreshInterval limits how often the panel is redrawn.
const RefreshInterval = time.Second

// Service display
type Service struct {
	Out io.Writer

	state    string
	motion   bool
	distance float64
	alert    string
	lastDraw time.Time
}

// ID of the service
func (self *Service) ID() string {
	return "display"
}

func (self *Service) update(ev *pubsub.Event) bool {
	switch ev.Topic {
	case "motion":
		self.motion = ev.Command() == "on"
	case "distance":
		self.distance = ev.FloatField("distance")
	case "state":
		self.state = ev.State()
	case "alert":
		self.alert = ev.StringField("message")
	default:
		return false
	}
	return true
}

func (self *Service) render(now time.Time) {
	w := self.Out
	fmt.Fprint(w, "\033[H\033[2J") // clear screen
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w)
	state := self.state
	if state == "" {
		state = "Starting"
	}
	fmt.Fprintf(w, "STATUS: %s\n", state)
	fmt.Fprintln(w)
	motion := "CLEAR"
	if self.motion {
		motion = "DETECTED"
	}
	fmt.Fprintf(w, "Motion: %s\n", motion)
	if self.distance > 0 {
		fmt.Fprintf(w, "Distance: %.1f cm\n", self.distance)
	} else {
		fmt.Fprintln(w, "Distance: no reading")
	}
	if self.alert != "" {
		fmt.Fprintf(w, "Last alert: %s\n", self.alert)
	}
	fmt.Fprintf(w, "Time: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==================================================")
	self.lastDraw = now
}

func (self *Service) event(ev *pubsub.Event) {
	if !self.update(ev) {
		return
	}
	now := Clock()
	if now.Sub(self.lastDraw) >= RefreshInterval {
		self.render(now)
	}
}

// Run the service
func (self *Service) Run() error {
	if self.Out == nil {
		self.Out = os.Stdout
	}
	events := services.Subscriber.Subscribe(
		pubsub.Exact("motion"),
		pubsub.Exact("distance"),
		pubsub.Exact("state"),
		pubsub.Exact("alert"))
	ticker := time.NewTicker(RefreshInterval)
	for {
		select {
		case ev := <-events:
			self.event(ev)
		case tick := <-ticker.C:
			self.render(tick)
		}
	}
}
